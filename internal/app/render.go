package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kokoroe/kokoroe-sdk-go/pkg/httpclient"
)

// Render writes the status line of resp followed by its body in format:
// "json" pretty-prints JSON bodies, "yaml" converts them, "raw" dumps the
// response in wire form. HTML bodies are summarized by their title.
func Render(w io.Writer, resp *httpclient.Response, format string) error {
	if format == "raw" {
		_, err := w.Write(httpclient.WriteRawResponse(resp))
		return err
	}

	if _, err := fmt.Fprintf(w, "HTTP/%s %d %s\n", resp.ProtocolVersion(), resp.StatusCode(), resp.ReasonPhrase()); err != nil {
		return err
	}
	body := resp.Body()
	if len(body) == 0 {
		return nil
	}

	if strings.Contains(resp.HeaderLine("Content-Type"), "text/html") {
		return renderHTML(w, resp)
	}

	data, err := resp.JSON()
	if err != nil {
		// Not JSON: print the body untouched.
		_, werr := fmt.Fprintf(w, "%s\n", body)
		return werr
	}

	switch format {
	case "yaml":
		out, err := yaml.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	default:
		var buf bytes.Buffer
		if err := json.Indent(&buf, body, "", "  "); err != nil {
			return fmt.Errorf("indent json: %w", err)
		}
		buf.WriteByte('\n')
		_, err := buf.WriteTo(w)
		return err
	}
}

func renderHTML(w io.Writer, resp *httpclient.Response) error {
	doc, err := resp.HTML()
	if err != nil {
		return err
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title = "(untitled HTML document)"
	}
	_, err = fmt.Fprintf(w, "html: %s\n", title)
	return err
}
