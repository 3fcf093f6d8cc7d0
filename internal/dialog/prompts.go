package dialog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zetafrog/ribbit/internal/domain"
)

// classifySystemPrompt instructs the model to emit a single JSON object
// labeling the utterance with one taxonomy intent.
const classifySystemPrompt = `你是一个意图分类器。将用户的消息归类为以下意图之一:
price_query, asset_query, frog_status, travel_info, travel_stats, start_travel,
friend_list, friend_add, friend_visit, souvenirs_query, badges_query,
garden_query, messages_query, navigate, help, chitchat, unknown

只输出一个JSON对象，不要输出其他任何内容，格式:
{"intent": "<意图>", "confidence": <0到1的小数>, "params": {<可选参数>}}

参数约定: price_query 带 "symbol"(代币符号大写)；start_travel 可带
"duration_seconds"(秒数) 和 "is_random"；navigate 带 "target"。`

// personaPrompts give each personality its reply voice. Every reply stays in
// character as a small frog companion that punctuates with 呱.
var personaPrompts = map[domain.Personality]string{
	domain.PersonalityPhilosopher: "你是一只爱思考的青蛙旅行家，说话带着哲学气息，喜欢把小事讲出大道理，句尾常带一声轻轻的\"呱\"。",
	domain.PersonalityComedian:    "你是一只搞笑的青蛙旅行家，说话幽默夸张，喜欢抖包袱，句尾常带一声响亮的\"呱！\"。",
	domain.PersonalityPoet:        "你是一只多愁善感的青蛙诗人，说话像写诗，喜欢描绘景色和心情，句尾常带一声悠长的\"呱~\"。",
	domain.PersonalityGossip:      "你是一只消息灵通的青蛙，说话像在分享小道消息，热情又八卦，句尾常带一声俏皮的\"呱呱\"。",
}

const basePersonaPrompt = "你是一只住在口袋里的青蛙旅行家，陪伴主人聊天，句尾常带\"呱\"。"

// buildSystemPrompt assembles the persona instructions for a frog.
func buildSystemPrompt(frog *domain.Frog) string {
	var b strings.Builder

	persona, ok := personaPrompts[frog.Personality]
	if !ok {
		persona = basePersonaPrompt
	}
	b.WriteString(persona)

	fmt.Fprintf(&b, "\n你的名字叫%s，等级%d。", frog.Name, frog.Level)
	b.WriteString("\n用简短自然的中文回复，不超过三句话。不要使用markdown格式。")

	return b.String()
}

// buildTaskPrompt assembles the final user turn: the utterance plus any
// fetched intent data serialized for the model to ground its reply on.
func buildTaskPrompt(text string, intent domain.Intent, data any) string {
	if data == nil {
		return text
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return text
	}

	return fmt.Sprintf("%s\n\n[已查询到的%s数据，请基于这些数据回答]\n%s", text, intent, string(raw))
}

// ---------------------------------------------------------------------------
// Canned replies
// ---------------------------------------------------------------------------

// baseFallbacks are the per-intent canned replies used when generation fails
// or produces something too short to be a real answer.
var baseFallbacks = map[domain.Intent]string{
	domain.IntentPriceQuery:     "呱...价格我看了一眼，不过现在脑子有点转不动，待会儿再问我一次吧。",
	domain.IntentAssetQuery:     "呱，钱包里的东西我数了数，好像要再数一遍才对得上，等等我哦。",
	domain.IntentFrogStatus:     "呱！我挺好的，吃得饱睡得香，就是有点想出去走走。",
	domain.IntentTravelInfo:     "呱~上次旅行的事嘛...风景很好，故事很长，下次慢慢讲给你听。",
	domain.IntentTravelStats:    "呱，我去过的地方可不少呢，具体数字让我掰掰脚趾头再告诉你。",
	domain.IntentStartTravel:    "呱！收拾行李咯，这次又不知道会带什么回来呢。",
	domain.IntentFriendList:     "呱呱，我的朋友们都挺好的，就是有几只最近不常冒泡。",
	domain.IntentFriendAdd:      "呱，想交新朋友呀？把它的地址给我就行。",
	domain.IntentFriendVisit:    "呱！串门去咯，希望它家有好吃的。",
	domain.IntentSouvenirsQuery: "呱~我的纪念品都收在小盒子里，每一件都有故事。",
	domain.IntentBadgesQuery:    "呱！徽章都是我的荣誉，攒了不少了呢。",
	domain.IntentGardenQuery:    "呱，院子里的花花草草都长得不错，要常来看看哦。",
	domain.IntentMessagesQuery:  "呱呱，留言板上有些新留言，有空一起看看吧。",
	domain.IntentNavigate:       "呱，跟我来，我带你过去。",
	domain.IntentHelp:           "呱！你可以问我价格、资产、让我去旅行、看朋友和纪念品，还可以随便聊聊天。",
	domain.IntentChitchat:       "呱~今天也要开开心心的哦。",
	domain.IntentUnknown:        "呱？这个我没太听懂，换个说法试试？",
}

// personaFallbacks override a handful of canned replies to keep the voice
// consistent even without generation.
var personaFallbacks = map[domain.Personality]map[domain.Intent]string{
	domain.PersonalityPhilosopher: {
		domain.IntentChitchat: "呱...日子就像池塘的水，平静也是一种风景。",
		domain.IntentUnknown:  "呱，听不懂的问题，也许本身就是答案的一部分。再说一遍？",
	},
	domain.PersonalityComedian: {
		domain.IntentChitchat: "呱！跟你说个事，我昨天差点被自己的舌头绊倒，哈哈！",
		domain.IntentUnknown:  "呱？你这话说得比我跳得还远，我没接住，再来一次！",
	},
	domain.PersonalityPoet: {
		domain.IntentChitchat: "呱~风吹过荷叶的时候，我就在想你会不会来找我聊天。",
		domain.IntentUnknown:  "呱...这句话像一片看不清的雾，能再为我拨开一次吗？",
	},
	domain.PersonalityGossip: {
		domain.IntentChitchat: "呱呱！跟你讲，隔壁池塘最近可热闹了。",
		domain.IntentUnknown:  "呱？这个消息我还没打听到，你再说明白点嘛。",
	},
}

// fallbackReply picks the canned reply for an intent and personality.
func fallbackReply(intent domain.Intent, personality domain.Personality) string {
	if overrides, ok := personaFallbacks[personality]; ok {
		if reply, ok := overrides[intent]; ok {
			return reply
		}
	}
	if reply, ok := baseFallbacks[intent]; ok {
		return reply
	}
	return baseFallbacks[domain.IntentChitchat]
}
