package domain

// Intent is one member of the closed dispatch taxonomy. Every classified
// turn resolves to exactly one of these values.
type Intent string

const (
	IntentPriceQuery     Intent = "price_query"
	IntentAssetQuery     Intent = "asset_query"
	IntentFrogStatus     Intent = "frog_status"
	IntentTravelInfo     Intent = "travel_info"
	IntentTravelStats    Intent = "travel_stats"
	IntentStartTravel    Intent = "start_travel"
	IntentFriendList     Intent = "friend_list"
	IntentFriendAdd      Intent = "friend_add"
	IntentFriendVisit    Intent = "friend_visit"
	IntentSouvenirsQuery Intent = "souvenirs_query"
	IntentBadgesQuery    Intent = "badges_query"
	IntentGardenQuery    Intent = "garden_query"
	IntentMessagesQuery  Intent = "messages_query"
	IntentNavigate       Intent = "navigate"
	IntentHelp           Intent = "help"
	IntentChitchat       Intent = "chitchat"
	IntentUnknown        Intent = "unknown"
)

// Intents lists every taxonomy member.
var Intents = []Intent{
	IntentPriceQuery, IntentAssetQuery, IntentFrogStatus,
	IntentTravelInfo, IntentTravelStats, IntentStartTravel,
	IntentFriendList, IntentFriendAdd, IntentFriendVisit,
	IntentSouvenirsQuery, IntentBadgesQuery, IntentGardenQuery,
	IntentMessagesQuery, IntentNavigate, IntentHelp,
	IntentChitchat, IntentUnknown,
}

var intentSet = func() map[Intent]struct{} {
	m := make(map[Intent]struct{}, len(Intents))
	for _, in := range Intents {
		m[in] = struct{}{}
	}
	return m
}()

// IsValid reports whether the value is a taxonomy member.
func (i Intent) IsValid() bool {
	_, ok := intentSet[i]
	return ok
}

// IntentResult is the outcome of classifying one user utterance.
type IntentResult struct {
	Intent     Intent         `json:"intent"`
	Confidence float64        `json:"confidence"`
	Params     map[string]any `json:"params,omitempty"`
}

// Mood is the companion's displayed emotional state for a turn.
type Mood string

const (
	MoodThinking    Mood = "thinking"
	MoodCounting    Mood = "counting"
	MoodHappy       Mood = "happy"
	MoodAdventurous Mood = "adventurous"
	MoodExcited     Mood = "excited"
	MoodRelaxed     Mood = "relaxed"
	MoodHelpful     Mood = "helpful"
	MoodConfused    Mood = "confused"
	MoodNeutral     Mood = "neutral"
)

var intentMoods = map[Intent]Mood{
	IntentPriceQuery:     MoodThinking,
	IntentAssetQuery:     MoodCounting,
	IntentFrogStatus:     MoodHappy,
	IntentTravelInfo:     MoodAdventurous,
	IntentTravelStats:    MoodAdventurous,
	IntentStartTravel:    MoodExcited,
	IntentFriendList:     MoodHappy,
	IntentFriendAdd:      MoodHappy,
	IntentFriendVisit:    MoodExcited,
	IntentSouvenirsQuery: MoodAdventurous,
	IntentBadgesQuery:    MoodHappy,
	IntentGardenQuery:    MoodRelaxed,
	IntentMessagesQuery:  MoodRelaxed,
	IntentNavigate:       MoodHelpful,
	IntentHelp:           MoodHelpful,
	IntentChitchat:       MoodRelaxed,
	IntentUnknown:        MoodConfused,
}

// MoodFor maps an intent to the companion mood shown alongside the reply.
// Unmapped values fall back to neutral.
func MoodFor(i Intent) Mood {
	if m, ok := intentMoods[i]; ok {
		return m
	}
	return MoodNeutral
}
