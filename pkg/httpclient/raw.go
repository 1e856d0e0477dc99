package httpclient

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
)

var (
	blankLine   = regexp.MustCompile(`(?:\r?\n){2}`)
	lineBreak   = regexp.MustCompile(`\r?\n`)
	statusLine  = regexp.MustCompile(`^HTTP/(\d+(?:\.\d+)?)\s+(\d{3})(?:\s+(.*))?$`)
	segmentHead = regexp.MustCompile(`(?i)^HTTP/\d+(?:\.\d+)?\s+\d{3}`)
)

type parsedStatus struct {
	protocol string
	code     int
	reason   string
}

func parseStatusLine(line string) (parsedStatus, bool) {
	m := statusLine.FindStringSubmatch(strings.TrimRight(line, " \t"))
	if m == nil {
		return parsedStatus{}, false
	}
	code, err := strconv.Atoi(m[2])
	if err != nil {
		return parsedStatus{}, false
	}
	return parsedStatus{protocol: m[1], code: code, reason: m[3]}, true
}

// splitHead cuts data on the first blank line.
func splitHead(data []byte) (head, body []byte, found bool) {
	loc := blankLine.FindIndex(data)
	if loc == nil {
		return data, nil, false
	}
	return data[:loc[0]], data[loc[1]:], true
}

// intermediate reports whether head belongs to a response the transport moved
// past: informational replies, redirects it followed and proxy tunnel setup.
func intermediate(head []byte) bool {
	first := lineBreak.Split(string(head), 2)[0]
	st, ok := parseStatusLine(first)
	if !ok {
		return false
	}
	if st.code >= 100 && st.code < 200 {
		return true
	}
	if st.code >= 300 && st.code < 400 {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(st.reason), "Connection established")
}

// ParseRawResponse builds a Response from a raw HTTP/1.x response as read off
// the wire. Intermediate segments (100 Continue, followed redirects, proxy
// "Connection established") are skipped so only the final response remains.
//
// statusCode, when non-zero, is the status reported by the transport and wins
// over the one in the status line. Every header goes through
// AssertValidHeader; the body is set only when non-empty.
func ParseRawResponse(raw []byte, statusCode int) (*Response, error) {
	data := raw
	for {
		head, rest, found := splitHead(data)
		if !found || !segmentHead.Match(rest) || !intermediate(head) {
			break
		}
		data = rest
	}

	head, body, _ := splitHead(data)
	lines := lineBreak.Split(string(head), -1)

	st, ok := parseStatusLine(lines[0])
	if !ok && statusCode == 0 {
		return nil, &ParseError{Msg: "raw response has no status line"}
	}
	if statusCode == 0 {
		statusCode = st.code
	}

	resp, err := NewResponse().WithStatus(statusCode, "")
	if err != nil {
		return nil, err
	}
	if ok {
		if st.code == statusCode {
			resp.reasonPhrase = st.reason
		}
		resp.protocol = st.protocol
	}

	type field struct{ name, value string }
	var fields []field
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		if (line[0] == ' ' || line[0] == '\t') && len(fields) > 0 {
			last := &fields[len(fields)-1]
			last.value += " " + strings.TrimSpace(line)
			continue
		}
		name, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		fields = append(fields, field{name: name, value: strings.Trim(value, " \t")})
	}
	for _, f := range fields {
		if err := AssertValidHeader(f.name, f.value); err != nil {
			return nil, err
		}
		resp.header.Add(f.name, f.value)
	}

	if len(body) > 0 {
		resp.body = bytes.Clone(body)
	}
	return resp, nil
}

// WriteRawResponse renders resp in HTTP/1.x wire format. ParseRawResponse
// reads the output back into an equivalent Response.
func WriteRawResponse(resp *Response) []byte {
	var b bytes.Buffer
	protocol := resp.protocol
	if protocol == "" {
		protocol = defaultProtocolVersion
	}
	b.WriteString("HTTP/")
	b.WriteString(protocol)
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(resp.statusCode))
	if reason := resp.ReasonPhrase(); reason != "" {
		b.WriteByte(' ')
		b.WriteString(reason)
	}
	b.WriteString("\r\n")
	for _, key := range resp.header.Keys() {
		name, _ := resp.header.Name(key)
		for _, v := range resp.header.Values(key) {
			b.WriteString(name)
			b.WriteString(": ")
			b.WriteString(v)
			b.WriteString("\r\n")
		}
	}
	b.WriteString("\r\n")
	b.Write(resp.body)
	return b.Bytes()
}
