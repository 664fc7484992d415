package prompt

import (
	"testing"

	"github.com/willtrnr/nai2hta/models"

	"github.com/stretchr/testify/assert"
)

func weight(v float64) *float64 {
	return &v
}

func TestParseEmpty(t *testing.T) {
	parsed, err := Parse("")
	assert.NoError(t, err)
	assert.Empty(t, parsed)
}

func TestParseBasic(t *testing.T) {
	parsed, err := Parse("foo, bar")
	assert.NoError(t, err)
	assert.Equal(t, models.ParsedPrompt{
		{Tags: []string{"foo", "bar"}},
	}, parsed)
}

func TestParseBasicWeighted(t *testing.T) {
	for _, input := range []string{"{foo, bar}", "[foo, bar]", "(foo, bar)"} {
		t.Run(input, func(t *testing.T) {
			parsed, err := Parse(input)
			assert.NoError(t, err)
			assert.Equal(t, models.ParsedPrompt{
				{Tags: []string{"foo", "bar"}},
			}, parsed)
		})
	}
}

func TestParseMixed(t *testing.T) {
	// 重复定界符折叠为单一组边界,闭合后的内容开启新的段
	parsed, err := Parse("{{{foo}}} bar")
	assert.NoError(t, err)
	assert.Equal(t, models.ParsedPrompt{
		{Tags: []string{"foo"}},
		{Tags: []string{"bar"}},
	}, parsed)
}

func TestParseReal(t *testing.T) {
	parsed, err := Parse("(masterpiece:1.157625), (best quality:1.157625), 1girl, solo, science fiction,")
	assert.NoError(t, err)
	assert.Equal(t, models.ParsedPrompt{
		{Tags: []string{"masterpiece"}, Weight: weight(1.157625)},
		{Tags: []string{"best quality"}, Weight: weight(1.157625)},
		{Tags: []string{"1girl", "solo", "science fiction"}},
	}, parsed)

	// 字面括号段里的冒号不触发权重解析
	parsed, err = Parse("bronya zaychik (silverwing: n-ex)|masterpiece")
	assert.NoError(t, err)
	assert.Equal(t, models.ParsedPrompt{
		{Tags: []string{"bronya zaychik (silverwing: n-ex)"}},
		{Tags: []string{"masterpiece"}},
	}, parsed)

	parsed, err = Parse("black dress, yuuka (blue archive):0.5|masterpiece")
	assert.NoError(t, err)
	assert.Equal(t, models.ParsedPrompt{
		{Tags: []string{"black dress", "yuuka (blue archive)"}, Weight: weight(0.5)},
		{Tags: []string{"masterpiece"}},
	}, parsed)
}

func TestParseTopLevelWeight(t *testing.T) {
	parsed, err := Parse("foo:0.5")
	assert.NoError(t, err)
	assert.Equal(t, models.ParsedPrompt{
		{Tags: []string{"foo"}, Weight: weight(0.5)},
	}, parsed)

	parsed, err = Parse("a|b:-2")
	assert.NoError(t, err)
	assert.Equal(t, models.ParsedPrompt{
		{Tags: []string{"a"}},
		{Tags: []string{"b"}, Weight: weight(-2)},
	}, parsed)
}

func TestParseLiteralColon(t *testing.T) {
	// 冒号后没有"数字 + 收尾"时按标签字面文本处理
	parsed, err := Parse("foo:bar")
	assert.NoError(t, err)
	assert.Equal(t, models.ParsedPrompt{
		{Tags: []string{"foo:bar"}},
	}, parsed)

	parsed, err = Parse("foo:")
	assert.NoError(t, err)
	assert.Equal(t, models.ParsedPrompt{
		{Tags: []string{"foo:"}},
	}, parsed)
}

func TestParseAlternativesInsideGroup(t *testing.T) {
	parsed, err := Parse("{foo, bar:0.8|baz}")
	assert.NoError(t, err)
	assert.Equal(t, models.ParsedPrompt{
		{Tags: []string{"foo", "bar"}, Weight: weight(0.8)},
		{Tags: []string{"baz"}},
	}, parsed)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		offset int
	}{
		{name: "unmatched opening brace", input: "{foo", offset: 0},
		{name: "unmatched opening paren", input: "(foo", offset: 0},
		{name: "unmatched closing bracket", input: "foo]", offset: 3},
		{name: "stray closing paren", input: ")", offset: 0},
		{name: "mixed delimiters", input: "{foo]", offset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			assert.Error(t, err)
			var syntaxErr *SyntaxError
			assert.ErrorAs(t, err, &syntaxErr)
			assert.Equal(t, tt.offset, syntaxErr.Offset)
		})
	}
}
