package atlas

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

const (
	TOKEN_PROPERTY = iota
	TOKEN_NAME
	TOKEN_NEWLINE
)

var lexer *lexmachine.Lexer

func init() {
	lexer = lexmachine.NewLexer()
	lexer.Add([]byte(`[ \t]*[a-zA-Z]+:[^\n\r]*`), getToken(TOKEN_PROPERTY))
	lexer.Add([]byte(`[^\n\r]+`), getToken(TOKEN_NAME))
	lexer.Add([]byte(`(\n|\r|\n\r)+`), getToken(TOKEN_NEWLINE))
}

func getToken(tokenType int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(tokenType, string(m.Bytes), m), nil
	}
}

// Region is one packed image inside a page. X/Y/Width/Height address the
// packed rect; the Original* and Offset* fields restore whitespace the
// packer stripped.
type Region struct {
	Name           string
	Rotate         int
	X, Y           int
	Width, Height  int
	OffsetX        int
	OffsetY        int
	OriginalWidth  int
	OriginalHeight int
	Index          int
}

type Page struct {
	Name               string
	Width, Height      int
	Format             string
	MinFilter          string
	MagFilter          string
	Repeat             string
	PremultipliedAlpha bool
	Regions            []*Region
}

type Atlas struct {
	Pages []*Page
}

func (a *Atlas) FindRegion(name string) *Region {
	for _, page := range a.Pages {
		for _, region := range page.Regions {
			if region.Name == name {
				return region
			}
		}
	}
	return nil
}

// Parse reads the text atlas format. A page starts with a bare image name
// line, followed by page properties, followed by region blocks; a blank line
// starts the next page.
func Parse(text []byte) (*Atlas, error) {
	scanner, err := lexer.Scanner(text)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to create lexer scanner")
	}

	atlas := &Atlas{}
	var page *Page
	var region *Region

	for iTok, err, eos := scanner.Next(); !eos; iTok, err, eos = scanner.Next() {
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to parse token")
		}
		tok := iTok.(*lexmachine.Token)

		switch tok.Type {
		case TOKEN_NEWLINE:
			// The lexer collapses a run of line breaks into one token, so a
			// blank line shows up as two or more breaks in the lexeme.
			if lineBreaks(tok.Lexeme) >= 2 {
				page = nil
				region = nil
			}
			continue

		case TOKEN_NAME:
			name := strings.TrimSpace(string(tok.Lexeme))
			if page == nil {
				page = &Page{Name: name}
				atlas.Pages = append(atlas.Pages, page)
				region = nil
			} else {
				region = &Region{Name: name, Index: -1}
				page.Regions = append(page.Regions, region)
			}

		case TOKEN_PROPERTY:
			line := strings.SplitN(string(tok.Lexeme), ":", 2)
			key := strings.TrimSpace(line[0])
			values := splitValues(line[1])
			if page == nil {
				return nil, errors.Errorf("Property %q on line %v before any page", key, tok.StartLine)
			}
			if region == nil {
				if err := page.setProperty(key, values); err != nil {
					return nil, errors.Wrapf(err, "Line %v", tok.StartLine)
				}
			} else if err := region.setProperty(key, values); err != nil {
				return nil, errors.Wrapf(err, "Line %v", tok.StartLine)
			}
		}
	}
	return atlas, nil
}

// lineBreaks counts newlines in a TOKEN_NEWLINE lexeme. Old Mac files use
// bare carriage returns, everything else carries a line feed per break.
func lineBreaks(lexeme []byte) int {
	if n := strings.Count(string(lexeme), "\n"); n > 0 {
		return n
	}
	return strings.Count(string(lexeme), "\r")
}

func splitValues(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseInts(values []string, want int) ([]int, error) {
	if len(values) < want {
		return nil, errors.Errorf("Expected %v values, got %v", want, len(values))
	}
	res := make([]int, want)
	for i := 0; i < want; i++ {
		v, err := strconv.Atoi(values[i])
		if err != nil {
			return nil, errors.Wrapf(err, "Bad integer %q", values[i])
		}
		res[i] = v
	}
	return res, nil
}

func (p *Page) setProperty(key string, values []string) error {
	switch key {
	case "size":
		size, err := parseInts(values, 2)
		if err != nil {
			return err
		}
		p.Width, p.Height = size[0], size[1]
	case "format":
		p.Format = values[0]
	case "filter":
		p.MinFilter = values[0]
		if len(values) > 1 {
			p.MagFilter = values[1]
		}
	case "repeat":
		p.Repeat = values[0]
	case "pma":
		p.PremultipliedAlpha = values[0] == "true"
	default:
		return errors.Errorf("Unknown page property %q", key)
	}
	return nil
}

func (r *Region) setProperty(key string, values []string) error {
	switch key {
	case "rotate":
		// Legacy files say true/false, newer ones give degrees.
		switch values[0] {
		case "true":
			r.Rotate = 90
		case "false":
			r.Rotate = 0
		default:
			deg, err := strconv.Atoi(values[0])
			if err != nil {
				return errors.Wrapf(err, "Bad rotate %q", values[0])
			}
			r.Rotate = deg
		}
	case "xy":
		xy, err := parseInts(values, 2)
		if err != nil {
			return err
		}
		r.X, r.Y = xy[0], xy[1]
	case "size":
		size, err := parseInts(values, 2)
		if err != nil {
			return err
		}
		r.Width, r.Height = size[0], size[1]
	case "bounds":
		bounds, err := parseInts(values, 4)
		if err != nil {
			return err
		}
		r.X, r.Y, r.Width, r.Height = bounds[0], bounds[1], bounds[2], bounds[3]
	case "orig":
		orig, err := parseInts(values, 2)
		if err != nil {
			return err
		}
		r.OriginalWidth, r.OriginalHeight = orig[0], orig[1]
	case "offset":
		offset, err := parseInts(values, 2)
		if err != nil {
			return err
		}
		r.OffsetX, r.OffsetY = offset[0], offset[1]
	case "offsets":
		offsets, err := parseInts(values, 4)
		if err != nil {
			return err
		}
		r.OffsetX, r.OffsetY = offsets[0], offsets[1]
		r.OriginalWidth, r.OriginalHeight = offsets[2], offsets[3]
	case "index":
		index, err := parseInts(values, 1)
		if err != nil {
			return err
		}
		r.Index = index[0]
	default:
		return errors.Errorf("Unknown region property %q", key)
	}
	return nil
}
