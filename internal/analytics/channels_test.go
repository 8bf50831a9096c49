package analytics

import (
	"testing"
)

func TestChannelMapFallbackLabel(t *testing.T) {
	if got := DefaultChannelMap.Name(8); got != "抖音" {
		t.Fatalf("expected 抖音 for code 8, got %s", got)
	}
	if got := DefaultChannelMap.Name(9999); got != "未知渠道(9999)" {
		t.Fatalf("expected placeholder label, got %s", got)
	}
}

func TestCategorizeFirstMatchWins(t *testing.T) {
	cases := map[string]string{
		"抖音":        "抖音",
		"投放抖音表单":    "抖音",
		"视频号脱单小程序":  "视频号",
		"哔哩哔哩脱单小程序": "哔哩哔哩",
		"投放视频号直播":   "视频号",
		"脱单小程序":     "小程序",
		"网站注册":      CategoryOther,
		"未知渠道(99)":  CategoryOther,
	}
	for name, want := range cases {
		if got := Categorize(name, DefaultCategoryRules); got != want {
			t.Fatalf("Categorize(%s) = %s, want %s", name, got, want)
		}
	}
}
