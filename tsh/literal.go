package tsh

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// ErrParse - файл скачан, но тело не является ожидаемым литералом.
var ErrParse = errors.New("tournament file parse error")

// ParseLiteral разбирает объектный литерал из экспорта турнирного движка.
// Формат - не строгий JSON: ключи бывают без кавычек, строки в одинарных
// кавычках, допустимы висячие запятые, undefined и NaN. Разбор строится
// только из плоских данных (map[string]any, []any, float64, string,
// bool, nil) - никакого вычисления выражений. undefined, NaN и
// Infinity сводятся к nil, чтобы результат сериализовался обратно в
// обычный JSON без потерь.
//
// Всё до первой '{' игнорируется (префикс вида "newt = ").
func ParseLiteral(src []byte) (map[string]any, error) {
	start := -1
	for i, c := range src {
		if c == '{' {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("%w: no object literal found in payload", ErrParse)
	}

	p := &literalParser{src: src, pos: start}
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	// После объекта допускаем только хвостовые пробелы и ';'.
	p.skipSpace()
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == ';' {
			p.pos++
			p.skipSpace()
			continue
		}
		return nil, fmt.Errorf("%w: trailing data at offset %d", ErrParse, p.pos)
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrParse)
	}
	return obj, nil
}

type literalParser struct {
	src []byte
	pos int
}

func (p *literalParser) errAt(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%w: %s at offset %d", ErrParse, msg, p.pos)
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.pos++
		case c == '/' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '/':
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
		case c == '/' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '*':
			p.pos += 2
			for p.pos+1 < len(p.src) && !(p.src[p.pos] == '*' && p.src[p.pos+1] == '/') {
				p.pos++
			}
			p.pos += 2
		default:
			return
		}
	}
}

func (p *literalParser) peek() (byte, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0, p.errAt("unexpected end of input")
	}
	return p.src[p.pos], nil
}

func (p *literalParser) parseValue() (any, error) {
	c, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"' || c == '\'':
		return p.parseString(c)
	case c == '-' || c == '+' || (c >= '0' && c <= '9') || c == '.':
		return p.parseNumber()
	default:
		return p.parseWord()
	}
}

func (p *literalParser) parseObject() (map[string]any, error) {
	p.pos++ // '{'
	obj := make(map[string]any)
	for {
		c, err := p.peek()
		if err != nil {
			return nil, err
		}
		if c == '}' {
			p.pos++
			return obj, nil
		}
		key, err := p.parseKey()
		if err != nil {
			return nil, err
		}
		c, err = p.peek()
		if err != nil {
			return nil, err
		}
		if c != ':' {
			return nil, p.errAt("expected ':' after object key %q", key)
		}
		p.pos++
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		obj[key] = val

		c, err = p.peek()
		if err != nil {
			return nil, err
		}
		switch c {
		case ',':
			p.pos++ // висячая запятая перед '}' разрешена
		case '}':
		default:
			return nil, p.errAt("expected ',' or '}' in object, got %q", c)
		}
	}
}

func (p *literalParser) parseKey() (string, error) {
	c, err := p.peek()
	if err != nil {
		return "", err
	}
	if c == '"' || c == '\'' {
		return p.parseString(c)
	}
	// Ключ без кавычек: идентификатор или число.
	start := p.pos
	for p.pos < len(p.src) && isIdentChar(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", p.errAt("expected object key, got %q", c)
	}
	return string(p.src[start:p.pos]), nil
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '$' || c == '.' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (p *literalParser) parseArray() ([]any, error) {
	p.pos++ // '['
	arr := make([]any, 0)
	for {
		c, err := p.peek()
		if err != nil {
			return nil, err
		}
		if c == ']' {
			p.pos++
			return arr, nil
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)

		c, err = p.peek()
		if err != nil {
			return nil, err
		}
		switch c {
		case ',':
			p.pos++
		case ']':
		default:
			return nil, p.errAt("expected ',' or ']' in array, got %q", c)
		}
	}
}

func (p *literalParser) parseString(quote byte) (string, error) {
	p.pos++ // открывающая кавычка
	var sb strings.Builder
	for {
		if p.pos >= len(p.src) {
			return "", p.errAt("unterminated string")
		}
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return sb.String(), nil
		case c == '\\':
			p.pos++
			if p.pos >= len(p.src) {
				return "", p.errAt("unterminated escape sequence")
			}
			esc := p.src[p.pos]
			p.pos++
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case 'b':
				sb.WriteByte('\b')
			case 'f':
				sb.WriteByte('\f')
			case '0':
				sb.WriteByte(0)
			case 'u':
				r, err := p.parseUnicodeEscape()
				if err != nil {
					return "", err
				}
				sb.WriteRune(r)
			case 'x':
				if p.pos+2 > len(p.src) {
					return "", p.errAt("bad \\x escape")
				}
				n, err := strconv.ParseUint(string(p.src[p.pos:p.pos+2]), 16, 8)
				if err != nil {
					return "", p.errAt("bad \\x escape")
				}
				p.pos += 2
				sb.WriteRune(rune(n))
			default:
				// \" \' \\ \/ и любой другой символ - как есть.
				sb.WriteByte(esc)
			}
		default:
			r, size := utf8.DecodeRune(p.src[p.pos:])
			sb.WriteRune(r)
			p.pos += size
		}
	}
}

func (p *literalParser) parseUnicodeEscape() (rune, error) {
	if p.pos+4 > len(p.src) {
		return 0, p.errAt("bad \\u escape")
	}
	n, err := strconv.ParseUint(string(p.src[p.pos:p.pos+4]), 16, 32)
	if err != nil {
		return 0, p.errAt("bad \\u escape")
	}
	p.pos += 4
	r := rune(n)
	// Суррогатная пара.
	if utf16.IsSurrogate(r) && p.pos+6 <= len(p.src) && p.src[p.pos] == '\\' && p.src[p.pos+1] == 'u' {
		if n2, err := strconv.ParseUint(string(p.src[p.pos+2:p.pos+6]), 16, 32); err == nil {
			if dec := utf16.DecodeRune(r, rune(n2)); dec != utf8.RuneError {
				p.pos += 6
				return dec, nil
			}
		}
	}
	return r, nil
}

func (p *literalParser) parseNumber() (any, error) {
	start := p.pos
	if p.src[p.pos] == '+' || p.src[p.pos] == '-' {
		p.pos++
	}
	// -Infinity тоже встречается.
	if p.hasWord("Infinity") {
		p.pos += len("Infinity")
		return nil, nil
	}
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' ||
			((c == '+' || c == '-') && (p.src[p.pos-1] == 'e' || p.src[p.pos-1] == 'E')) {
			p.pos++
			continue
		}
		break
	}
	text := string(p.src[start:p.pos])
	f, err := strconv.ParseFloat(strings.TrimPrefix(text, "+"), 64)
	if err != nil {
		return nil, p.errAt("invalid number %q", text)
	}
	return f, nil
}

func (p *literalParser) hasWord(w string) bool {
	if p.pos+len(w) > len(p.src) {
		return false
	}
	if string(p.src[p.pos:p.pos+len(w)]) != w {
		return false
	}
	end := p.pos + len(w)
	return end >= len(p.src) || !isIdentChar(p.src[end])
}

func (p *literalParser) parseWord() (any, error) {
	for _, w := range []struct {
		word string
		val  any
	}{
		{"true", true},
		{"false", false},
		{"null", nil},
		{"undefined", nil},
		{"NaN", nil},
		{"Infinity", nil},
	} {
		if p.hasWord(w.word) {
			p.pos += len(w.word)
			return w.val, nil
		}
	}
	return nil, p.errAt("unexpected token")
}
