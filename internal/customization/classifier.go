package customization

import (
	"regexp"
	"strings"
)

// Rule is one step of the level cascade. Rules are evaluated in order and the first match wins.
type Rule struct {
	Level Level
	Name  string
	Match func(req ProductRequestJSON) bool
}

var rules = []Rule{
	{Level: Level5, Name: "many-features-and-variations", Match: func(req ProductRequestJSON) bool {
		return len(req.Customization.Features) > 3 && len(req.Customization.ColorVariations) > 3
	}},
	{Level: Level5, Name: "system-keywords", Match: anyFeature("assembly", "multi-component", "system", "set")},
	{Level: Level4, Name: "tooling-keywords", Match: anyFeature("mold", "tooling", "outsole", "custom shape", "injection")},
	{Level: Level4, Name: "equipment-keywords", Match: anyFeature("specialized equipment", "vending", "machine")},
	{Level: Level3, Name: "structural-keywords", Match: anyFeature("size modif", "capacity change", "structural", "resize", "dimension")},
	{Level: Level3, Name: "composition-keywords", Match: anyFeature("material composition", "structural adjust")},
	{Level: Level2, Name: "component-keywords", Match: anyFeature("custom box", "label insert", "motor", "inner material", "component")},
	{Level: Level2, Name: "attached-logo", Match: func(req ProductRequestJSON) bool {
		logo := req.Customization.Logo
		return logo != nil && (logo.Type == LogoLabel || logo.Type == LogoRubberTag)
	}},
	{Level: Level2, Name: "hardware-keywords", Match: anyFeature("hardware", "d-ring", "strap", "zipper")},
	{Level: Level1, Name: "logo", Match: func(req ProductRequestJSON) bool {
		return req.Customization.Logo != nil
	}},
	{Level: Level1, Name: "color-variations", Match: func(req ProductRequestJSON) bool {
		return len(req.Customization.ColorVariations) > 0
	}},
	{Level: Level1, Name: "surface-keywords", Match: anyFeature("print", "engrav", "emboss", "color")},
	{Level: Level1, Name: "any-feature", Match: func(req ProductRequestJSON) bool {
		return len(req.Customization.Features) > 0
	}},
}

// Rules returns the classification cascade in evaluation order.
func Rules() []Rule {
	return append([]Rule(nil), rules...)
}

// DetermineLevel runs the cascade and returns the first matching level, or L1.
func DetermineLevel(req ProductRequestJSON) Level {
	for _, rule := range rules {
		if rule.Match(req) {
			return rule.Level
		}
	}
	return Level1
}

func anyFeature(keywords ...string) func(ProductRequestJSON) bool {
	quoted := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		quoted = append(quoted, regexp.QuoteMeta(kw))
	}
	pattern := regexp.MustCompile("(?i)" + strings.Join(quoted, "|"))
	return func(req ProductRequestJSON) bool {
		for _, feature := range req.Customization.Features {
			if pattern.MatchString(feature) {
				return true
			}
		}
		return false
	}
}
