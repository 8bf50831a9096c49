package analytics

import (
	"fmt"
	"strings"
)

// ChannelMap maps raw acquisition-channel codes to display names. It is
// read-only after construction and injected into the Analyzer rather than
// kept as ambient state.
type ChannelMap map[int]string

// Name resolves a code, synthesizing a placeholder label for unmapped codes
// instead of failing.
func (m ChannelMap) Name(code int) string {
	if name, ok := m[code]; ok {
		return name
	}
	return fmt.Sprintf("未知渠道(%d)", code)
}

// DefaultChannelMap is the CRM's channel code table.
var DefaultChannelMap = ChannelMap{
	1:  "网站注册",
	2:  "人工录入",
	3:  "资源导入",
	4:  "相亲活动",
	5:  "手机来电",
	6:  "表单填写",
	7:  "到店咨询",
	8:  "抖音",
	9:  "脱单小程序",
	10: "小红书",
	11: "Soul",
	12: "视频号",
	13: "微博",
	14: "视频号脱单小程序",
	15: "哔哩哔哩脱单小程序",
	16: "哔哩哔哩",
	17: "知乎脱单小程序",
	18: "微博脱单小程序",
	19: "广点通",
	20: "小红书投放表单",
	21: "探探",
	22: "投放微信视频号",
	23: "投放微博表单",
	24: "投放抖音",
	25: "投放抖音表单",
	26: "投放微信朋友圈",
	27: "投放知乎表单",
	28: "投放哔哩哔哩表单",
	29: "投放小红书表单",
	30: "投放微博",
	31: "投放知乎",
	32: "投放哔哩哔哩",
	33: "投放公众号",
	34: "投放公众号大V",
	35: "投放微信朋友圈表单",
	36: "投放脱单小程序",
	37: "投放脱单联盟CAPP",
	38: "投放脱单小程序",
	39: "投放脱单联盟CAPP",
	40: "投放优酷表单",
	42: "优酷",
	43: "橙APP",
	44: "知乎",
	45: "豆瓣",
	46: "直播",
	48: "投放视频号直播",
	49: "视频号直播",
	50: "运营Soul",
	51: "运营小红书",
	52: "运营抖音",
	53: "运营",
	54: "员工号",
	55: "投放支付宝",
	56: "投放支付宝表单",
	57: "运营知乎",
	58: "运营哔哩哔哩",
	59: "小程序搜索广告",
	60: "小程序广告搜索",
	61: "投放小红书",
	62: "网罗灯下黑（小程序）",
}

// CategoryRule buckets channel names into a coarse marketing-platform
// category by substring match. First matching rule wins.
type CategoryRule struct {
	Name       string
	Substrings []string
}

// CategoryOther is the fallback bucket for channels matching no rule.
const CategoryOther = "其他"

// DefaultCategoryRules groups the many per-platform channel variants
// (organic, paid, mini-program, live) under one platform bucket each.
// Platform substrings are checked before the generic mini-program/live
// buckets so that e.g. 视频号脱单小程序 lands under 视频号.
var DefaultCategoryRules = []CategoryRule{
	{Name: "抖音", Substrings: []string{"抖音"}},
	{Name: "小红书", Substrings: []string{"小红书"}},
	{Name: "视频号", Substrings: []string{"视频号"}},
	{Name: "哔哩哔哩", Substrings: []string{"哔哩哔哩"}},
	{Name: "知乎", Substrings: []string{"知乎"}},
	{Name: "微博", Substrings: []string{"微博"}},
	{Name: "Soul", Substrings: []string{"Soul"}},
	{Name: "优酷", Substrings: []string{"优酷"}},
	{Name: "小程序", Substrings: []string{"小程序"}},
	{Name: "直播", Substrings: []string{"直播"}},
}

// Categorize resolves a mapped channel name to its category bucket.
func Categorize(channelName string, rules []CategoryRule) string {
	for _, rule := range rules {
		for _, sub := range rule.Substrings {
			if strings.Contains(channelName, sub) {
				return rule.Name
			}
		}
	}
	return CategoryOther
}
