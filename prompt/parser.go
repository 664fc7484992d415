package prompt

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/willtrnr/nai2hta/models"
)

// SyntaxError 提示词语法错误,Offset 为无法解析处的字节偏移
type SyntaxError struct {
	Offset int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("提示词语法错误: 偏移 %d 处无法继续解析", e.Offset)
}

// Parse 将提示词解析为按源文本顺序排列的加权标签组。
// 输入必须被完整消费,剩余未解析文本视为语法错误而非静默截断。
//
// 文法要点:
//   - 词是不含空白与 ()[]{},:| 的最长字符段,标签是一个或多个词;
//   - 标签内部的冒号按字面处理,除非其后紧跟 "数字 + 收尾位置"(权重);
//   - 括号段 "(...)" 在能于结构分隔符之前闭合时并入标签字面文本,
//     否则开括号按加权组定界符处理;
//   - 加权组由一种重复的 ( [ { 定界符包裹,重复不产生嵌套;
//   - 组内与顶层均为 | 分隔的备选,每个备选是逗号分隔的标签序列,
//     可选 ":数字" 结尾权重。
func Parse(text string) (models.ParsedPrompt, error) {
	c := &cursor{src: text}
	c.skipWS()

	result := models.ParsedPrompt{}
	for {
		start := c.pos
		groups, ok := c.weightedGroup()
		if !ok {
			groups = c.alternatives(endEOF)
		}
		c.sep()
		if c.pos == start {
			// 无进展:要么输入耗尽,要么遇到无法解析的文本
			break
		}
		result = append(result, groups...)
	}

	if !c.eof() {
		return nil, &SyntaxError{Offset: c.pos}
	}
	return result, nil
}

// cursor 不可变输入上的解析游标,回溯只需恢复 pos
type cursor struct {
	src string
	pos int
}

var numberRe = regexp.MustCompile(`^-?[0-9]+(?:\.[0-9]+)?`)

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func isWordByte(b byte) bool {
	if isSpace(b) {
		return false
	}
	switch b {
	case '(', ')', '[', ']', '{', '}', ',', ':', '|':
		return false
	}
	return true
}

func (c *cursor) eof() bool {
	return c.pos >= len(c.src)
}

func (c *cursor) skipWS() {
	for c.pos < len(c.src) && isSpace(c.src[c.pos]) {
		c.pos++
	}
}

// lit 消费单个字符并吃掉其后的空白
func (c *cursor) lit(ch byte) bool {
	if c.eof() || c.src[c.pos] != ch {
		return false
	}
	c.pos++
	c.skipWS()
	return true
}

// word 消费一个词,返回其原文结束位置(空白折叠前)
func (c *cursor) word() (int, bool) {
	start := c.pos
	for c.pos < len(c.src) && isWordByte(c.src[c.pos]) {
		c.pos++
	}
	if c.pos == start {
		return 0, false
	}
	end := c.pos
	c.skipWS()
	return end, true
}

// number 消费一个带符号十进制数
func (c *cursor) number() (float64, bool) {
	m := numberRe.FindString(c.src[c.pos:])
	if m == "" {
		return 0, false
	}
	val, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	c.pos += len(m)
	c.skipWS()
	return val, true
}

// sep 一个或多个逗号(换行与其余空白同样折叠)
func (c *cursor) sep() bool {
	n := 0
	for c.lit(',') {
		n++
	}
	return n > 0
}

// endFn 判断当前位置是否为组的收尾(只探测,不消费)
type endFn func(c *cursor) bool

func endEOF(c *cursor) bool {
	return c.eof()
}

func endClose(ch byte) endFn {
	return func(c *cursor) bool {
		return !c.eof() && c.src[c.pos] == ch
	}
}

func pipeOr(end endFn) endFn {
	return func(c *cursor) bool {
		return (!c.eof() && c.src[c.pos] == '|') || end(c)
	}
}

// literalColon 冒号按标签字面文本消费;若其后紧跟 "数字 + 收尾",
// 则该冒号是权重引导符,整体回溯失败
func (c *cursor) literalColon(end endFn) (int, bool) {
	save := c.pos
	if !c.lit(':') {
		return 0, false
	}
	tokenEnd := save + 1
	probe := c.pos
	if _, ok := c.number(); ok && end(c) {
		c.pos = save
		return 0, false
	}
	c.pos = probe
	return tokenEnd, true
}

// simpleTag 由词与字面冒号组成的最小标签段,返回末 token 的原文结束位置
func (c *cursor) simpleTag(end endFn) (int, bool) {
	last := -1
	for {
		if e, ok := c.word(); ok {
			last = e
			continue
		}
		if e, ok := c.literalColon(end); ok {
			last = e
			continue
		}
		break
	}
	if last < 0 {
		return 0, false
	}
	return last, true
}

// parenRun 并入标签字面文本的括号段:必须在收尾位置之前闭合,
// 否则整体回溯(开括号将由加权组文法接手)
func (c *cursor) parenRun(end endFn) (int, bool) {
	save := c.pos
	if !c.lit('(') {
		return 0, false
	}
	inner, ok := c.simpleTag(end)
	if !ok {
		c.pos = save
		return 0, false
	}
	if !c.eof() && c.src[c.pos] == ')' {
		c.pos++
		tokenEnd := c.pos
		c.skipWS()
		return tokenEnd, true
	}
	if end(c) {
		// 未闭合但已到收尾位置:括号段到此为止
		return inner, true
	}
	c.pos = save
	return 0, false
}

// tag 完整标签:首个简单标签段,后接任意个简单标签段或括号字面段。
// 标签文本取原文切片,内部空白原样保留。
func (c *cursor) tag(end endFn) (string, bool) {
	start := c.pos
	last, ok := c.simpleTag(end)
	if !ok {
		return "", false
	}
	for {
		if e, ok := c.simpleTag(end); ok {
			last = e
			continue
		}
		if e, ok := c.parenRun(end); ok {
			last = e
			continue
		}
		break
	}
	return c.src[start:last], true
}

// alternative 一个备选:逗号分隔的标签序列,可选 ":数字" 结尾权重。
// 备选可以为空(不消费任何输入)。
func (c *cursor) alternative(end endFn) models.TagGroup {
	g := models.TagGroup{}
	if t, ok := c.tag(end); ok {
		g.Tags = append(g.Tags, t)
		for {
			if !c.sep() {
				break
			}
			t, ok := c.tag(end)
			if !ok {
				// 允许尾随分隔符
				break
			}
			g.Tags = append(g.Tags, t)
		}
	}
	save := c.pos
	if c.lit(':') {
		if n, ok := c.number(); ok {
			g.Weight = &n
		} else {
			c.pos = save
		}
	}
	return g
}

// alternatives 管道分隔的备选序列
func (c *cursor) alternatives(end endFn) []models.TagGroup {
	pe := pipeOr(end)
	groups := []models.TagGroup{c.alternative(pe)}
	for c.lit('|') {
		groups = append(groups, c.alternative(pe))
	}
	return groups
}

var groupDelims = []struct{ open, close byte }{
	{'(', ')'},
	{'[', ']'},
	{'{', '}'},
}

// weightedGroup 加权组:一种定界符的一个或多个开括号,匹配的一个或
// 多个闭括号。重复定界符折叠为单一组边界,不产生嵌套。
func (c *cursor) weightedGroup() ([]models.TagGroup, bool) {
	for _, d := range groupDelims {
		save := c.pos
		opened := 0
		for c.lit(d.open) {
			opened++
		}
		if opened == 0 {
			continue
		}
		groups := c.alternatives(endClose(d.close))
		closed := 0
		for c.lit(d.close) {
			closed++
		}
		if closed == 0 {
			c.pos = save
			continue
		}
		return groups, true
	}
	return nil, false
}
