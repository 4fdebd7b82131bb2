package mrc

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	headerStart = "[COURSE HEADER]"
	headerEnd   = "[END COURSE HEADER]"
	dataStart   = "[COURSE DATA]"
	dataEnd     = "[END COURSE DATA]"

	defaultFormatVersion = 2
)

var (
	// headerKeyRes match "KEY = value" lines, e.g. "DESCRIPTION = Sweet spot 3x12".
	headerKeyRes = map[string]*regexp.Regexp{
		"VERSION":     headerKeyRe("VERSION"),
		"UNITS":       headerKeyRe("UNITS"),
		"DESCRIPTION": headerKeyRe("DESCRIPTION"),
		"FILE NAME":   headerKeyRe("FILE NAME"),
		"DATA FORMAT": headerKeyRe("DATA FORMAT"),
	}

	// columnLineRe matches the bare column declaration: MINUTES PERCENT
	columnLineRe = regexp.MustCompile(`(?im)^[ \t]*(MINUTES[ \t]+(?:PERCENT|WATTS))[ \t]*$`)
)

func headerKeyRe(key string) *regexp.Regexp {
	k := strings.ReplaceAll(regexp.QuoteMeta(key), " ", `[ \t]+`)
	return regexp.MustCompile(`(?im)^[ \t]*` + k + `[ \t]*=[ \t]*(.*?)[ \t]*\r?$`)
}

// section returns the text between start and the first end marker after it.
func section(text, start, end string) (string, bool) {
	i := strings.Index(text, start)
	if i < 0 {
		return "", false
	}
	body := text[i+len(start):]
	j := strings.Index(body, end)
	if j < 0 {
		return "", false
	}
	return body[:j], true
}

// ExtractHeader reads the course header section. Unknown or absent keys are
// left empty; only a missing marker pair is an error.
func ExtractHeader(text string) (Header, error) {
	body, ok := section(text, headerStart, headerEnd)
	if !ok {
		return Header{}, ErrMissingHeaderSection
	}

	h := Header{
		FormatVersion: defaultFormatVersion,
		Units:         headerValue(body, "UNITS"),
		Description:   headerValue(body, "DESCRIPTION"),
		FileName:      headerValue(body, "FILE NAME"),
		DataFormat:    headerValue(body, "DATA FORMAT"),
	}
	if v, err := strconv.Atoi(headerValue(body, "VERSION")); err == nil {
		h.FormatVersion = v
	}
	if h.DataFormat == "" {
		if m := columnLineRe.FindStringSubmatch(body); m != nil {
			h.DataFormat = strings.Join(strings.Fields(strings.ToUpper(m[1])), " ")
		}
	}
	return h, nil
}

func headerValue(body, key string) string {
	m := headerKeyRes[key].FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
