package keyword

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":                   "",
		"Cá":                 "ca",
		"Cá Cảnh":            "ca canh",
		"ĐỒ CHƠI thủy sinh":  "do choi thuy sinh",
		"Máy lọc nước 220V":  "may loc nuoc 220v",
		"Thức ăn cho cá Koi": "thuc an cho ca koi",
		"  hai  khoảng  ":    "  hai  khoang  ",
		"plain ascii-text_1": "plain ascii-text_1",
	}

	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "Normalize(%q)", in)
	}
}

func TestNormalize_AccentInsensitiveEquality(t *testing.T) {
	assert.Equal(t, Normalize("ca canh"), Normalize("Cá Cảnh"))
	assert.Equal(t, Normalize("Đèn LED"), Normalize("den led"))
}

// Feature: storefront, Property: normalizing twice equals normalizing once
func TestProperty_NormalizeIsIdempotent(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("Normalize(Normalize(x)) == Normalize(x)", prop.ForAll(
		func(s string) bool {
			once := Normalize(s)
			return Normalize(once) == once
		},
		gen.OneGenOf(
			gen.AnyString(),
			gen.OneConstOf("Cá Cảnh", "Ốc Nerita", "Bể kính", "Đá nham thạch", "Rêu Java"),
		),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestMatcher_Bidirectional(t *testing.T) {
	m := NewMatcher("betta")
	assert.True(t, m.Match("Cá Betta"), "name contains keyword")

	long := NewMatcher("cá betta halfmoon")
	assert.True(t, long.Match("Cá Betta"), "keyword contains name")

	assert.False(t, NewMatcher("guppy").Match("Cá Betta"))
	assert.True(t, NewMatcher("CA BETTA").Match("cá betta"))
	assert.Equal(t, "ca betta halfmoon", long.Keyword())
}

// Feature: storefront, Property: a name always matches a keyword that extends it
func TestProperty_KeywordContainingNameMatches(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("name + suffix as keyword matches name", prop.ForAll(
		func(name, suffix string) bool {
			return NewMatcher(name + " " + suffix).Match(name)
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
