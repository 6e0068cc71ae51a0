package dialogue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/transcript"
)

// queryFraming prefixes the outgoing copy of the latest user turn so
// the model answers against the primer context rather than cold.
const queryFraming = "Using the details provided above, please address this query: "

var boldMarkup = regexp.MustCompile(`\*\*(.*?)\*\*`)

// Failure is a dialogue-model call that did not produce a reply. It
// carries the upstream error message when the service supplied one.
type Failure struct {
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}

// Client talks to the generative dialogue model endpoint.
type Client struct {
	url    string
	client *http.Client
}

func NewClient(url string) *Client {
	return &Client{
		url:    url,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type request struct {
	Contents []content `json:"contents"`
}

type response struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Respond formats the transcript for the model, appending augmentation
// to the outgoing copy of the last user turn only — the stored turn is
// untouched. On success the reply text is returned with emphasis
// markup stripped and whitespace trimmed. On failure the error is a
// *Failure carrying the upstream message when present.
func (c *Client) Respond(ctx context.Context, turns []transcript.Turn, augmentation string) (string, error) {
	lastUser := -1
	for i, t := range turns {
		if t.Role == transcript.RoleUser {
			lastUser = i
		}
	}

	contents := make([]content, len(turns))
	for i, t := range turns {
		text := t.Text
		if i == lastUser {
			text = queryFraming + text + augmentation
		}
		contents[i] = content{Role: string(t.Role), Parts: []part{{Text: text}}}
	}

	body, err := json.Marshal(request{Contents: contents})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &Failure{Message: fmt.Sprintf("dialogue call: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Failure{Message: fmt.Sprintf("read response: %v", err)}
	}

	var apiResp response
	if unmarshalErr := json.Unmarshal(respBody, &apiResp); unmarshalErr != nil && resp.StatusCode == http.StatusOK {
		return "", &Failure{Message: "Something went wrong. Try again later."}
	}

	if resp.StatusCode != http.StatusOK {
		if apiResp.Error.Message != "" {
			return "", &Failure{Message: apiResp.Error.Message}
		}
		return "", &Failure{Message: "Something went wrong. Try again later."}
	}

	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return "", &Failure{Message: "Something went wrong. Try again later."}
	}

	reply := apiResp.Candidates[0].Content.Parts[0].Text
	reply = boldMarkup.ReplaceAllString(reply, "$1")
	return strings.TrimSpace(reply), nil
}
