package parser

import "strings"

type section int

const (
	sectionNone section = iota
	sectionQuestion
	sectionAnswer
	sectionCloze
)

var headers = []struct {
	prefix  string
	section section
}{
	{"Q:", sectionQuestion},
	{"A:", sectionAnswer},
	{"C:", sectionCloze},
}

type sections struct {
	question string
	answer   string
	cloze    string
}

func parseSections(block string) sections {
	var (
		current section
		lines   = map[section][]string{}
	)

	for _, raw := range strings.Split(block, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			if current != sectionNone {
				lines[current] = append(lines[current], "")
			}
			continue
		}
		if line == separator {
			break
		}

		opened := sectionNone
		for _, h := range headers {
			if rest, ok := strings.CutPrefix(line, h.prefix); ok {
				opened = h.section
				line = strings.TrimSpace(rest)
				break
			}
		}
		if opened != sectionNone {
			current = opened
			lines[current] = lines[current][:0]
			if line != "" {
				lines[current] = append(lines[current], line)
			}
			continue
		}
		if current != sectionNone {
			lines[current] = append(lines[current], line)
		}
	}

	return sections{
		question: joinSection(lines[sectionQuestion]),
		answer:   joinSection(lines[sectionAnswer]),
		cloze:    joinSection(lines[sectionCloze]),
	}
}

func joinSection(lines []string) string {
	return strings.TrimRightFunc(strings.TrimLeft(strings.Join(lines, "\n"), "\n"), func(r rune) bool {
		return r == ' ' || r == '\n' || r == '\t' || r == '\r'
	})
}
