package provider

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/aiftbot/core/config"
)

// RenderEmoji turns a class→score object into the top three emoji.
const RenderEmoji = "emoji"

var emojiClasses = map[int]string{
	0: "😊", 1: "🥲", 2: "😡", 3: "😑", 4: "😱", 5: "😰", 6: "😯", 7: "😴",
	8: "😝", 9: "😍", 10: "😌", 11: "😐", 12: "😬", 13: "😳", 14: "😵",
	15: "💔", 16: "😎", 17: "😭", 18: "😅", 19: "😉", 20: "💜", 21: "😇",
}

func decode(svc config.ProviderService, raw []byte) (Result, error) {
	res := Result{Raw: json.RawMessage(raw)}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		// Some endpoints answer with plain text.
		if svc.ImagePath != "" || svc.AudioPath != "" || svc.TextPath != "" {
			return Result{}, fmt.Errorf("decode response: %w", err)
		}
		res.Text = strings.TrimSpace(string(raw))
		return res, nil
	}

	if svc.ImagePath != "" {
		v, ok := Lookup(doc, svc.ImagePath)
		if !ok {
			return Result{}, fmt.Errorf("response has no %q", svc.ImagePath)
		}
		res.ImageURL = SecureURL(stringify(v))
	}
	if svc.AudioPath != "" {
		v, ok := Lookup(doc, svc.AudioPath)
		if !ok {
			return Result{}, fmt.Errorf("response has no %q", svc.AudioPath)
		}
		res.AudioURL = SecureURL(stringify(v))
		if svc.DurationPath != "" {
			if d, ok := Lookup(doc, svc.DurationPath); ok {
				res.Duration = seconds(d)
			}
		}
	}

	textDoc := doc
	if svc.TextPath != "" {
		v, ok := Lookup(doc, svc.TextPath)
		if !ok {
			return Result{}, fmt.Errorf("response has no %q", svc.TextPath)
		}
		textDoc = v
	} else if res.ImageURL != "" || res.AudioURL != "" {
		return res, nil
	}

	if svc.Render == RenderEmoji {
		text, err := topEmoji(textDoc, 3)
		if err != nil {
			return Result{}, err
		}
		res.Text = text
		return res, nil
	}
	res.Text = stringify(textDoc)
	return res, nil
}

// Lookup walks a dotted path through decoded JSON. Numeric segments index
// arrays, e.g. "objects.0.result".
func Lookup(doc any, path string) (any, bool) {
	cur := doc
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// SecureURL upgrades http:// media links to https://.
func SecureURL(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

func seconds(v any) time.Duration {
	f, ok := number(v)
	if !ok || f < 0 {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}

func topEmoji(v any, n int) (string, error) {
	scores, ok := v.(map[string]any)
	if !ok {
		return "", fmt.Errorf("emoji render: expected object, got %T", v)
	}
	type classScore struct {
		id    int
		score float64
	}
	list := make([]classScore, 0, len(scores))
	for k, raw := range scores {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		s, ok := number(raw)
		if !ok {
			continue
		}
		list = append(list, classScore{id: id, score: s})
	}
	if len(list) == 0 {
		return "", fmt.Errorf("emoji render: no scores")
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].score == list[j].score {
			return list[i].id < list[j].id
		}
		return list[i].score > list[j].score
	})
	if len(list) > n {
		list = list[:n]
	}
	out := make([]string, 0, len(list))
	for _, cs := range list {
		e, ok := emojiClasses[cs.id]
		if !ok {
			e = "❓"
		}
		out = append(out, e)
	}
	return strings.Join(out, " "), nil
}
