// ============================================================================
// meetrec - Meeting Recorder
// ============================================================================
//
// Package:     transcribe
// Description: Transcription results and their tolerant wire decoding
// Author:      Mike Stoffels with Claude
// Created:     2025-12-08
// License:     MIT
// ============================================================================

package transcribe

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Options controls a transcription request
type Options struct {
	// Language is "auto" or a language code such as "nl" or "en"
	Language string

	// Summarize requests summary bullets alongside the transcript
	Summarize bool
}

// DefaultOptions returns auto-detected language with summary
func DefaultOptions() Options {
	return Options{Language: "auto", Summarize: true}
}

// Topic is a time-anchored section of the transcript
type Topic struct {
	Text     string   `json:"text"`
	StartMs  int64    `json:"start_ms"`
	EndMs    int64    `json:"end_ms"`
	HasStart bool     `json:"has_start"`
	HasEnd   bool     `json:"has_end"`
	Tags     []string `json:"tags,omitempty"`
}

// KeyPoint is a highlighted statement with an optional start time
type KeyPoint struct {
	Text     string `json:"text"`
	StartMs  int64  `json:"start_ms"`
	HasStart bool   `json:"has_start"`
}

// Result is the decoded transcription of one clip
type Result struct {
	FullText       string     `json:"full_text"`
	Topics         []Topic    `json:"topics"`
	SummaryBullets []string   `json:"summary_bullets"`
	KeyPoints      []KeyPoint `json:"key_points,omitempty"`
}

// Segment is a navigable piece of the result
type Segment struct {
	Text     string
	StartMs  int64
	HasStart bool
}

// Segments lists topics, then key points, then summary bullets
func (r *Result) Segments() []Segment {
	if r == nil {
		return nil
	}
	segments := make([]Segment, 0, len(r.Topics)+len(r.KeyPoints)+len(r.SummaryBullets))
	for _, t := range r.Topics {
		segments = append(segments, Segment{Text: t.Text, StartMs: t.StartMs, HasStart: t.HasStart})
	}
	for _, k := range r.KeyPoints {
		segments = append(segments, Segment{Text: k.Text, StartMs: k.StartMs, HasStart: k.HasStart})
	}
	for _, b := range r.SummaryBullets {
		segments = append(segments, Segment{Text: b})
	}
	return segments
}

// PlainText renders the result for copying or export
func (r *Result) PlainText() string {
	if r == nil {
		return ""
	}

	var b strings.Builder
	if len(r.SummaryBullets) > 0 {
		b.WriteString("Summary\n")
		for _, bullet := range r.SummaryBullets {
			b.WriteString("- " + bullet + "\n")
		}
		b.WriteString("\n")
	}
	if len(r.Topics) > 0 {
		b.WriteString("Topics\n")
		for _, t := range r.Topics {
			if t.HasStart {
				b.WriteString("[" + FormatTimestamp(t.StartMs) + "] ")
			}
			b.WriteString(t.Text)
			if len(t.Tags) > 0 {
				b.WriteString(" (" + strings.Join(t.Tags, ", ") + ")")
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(r.FullText)
	return strings.TrimSpace(b.String())
}

// FormatTimestamp renders milliseconds as m:ss
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	secs := ms / 1000
	return strconv.FormatInt(secs/60, 10) + ":" + leftPad(strconv.FormatInt(secs%60, 10))
}

func leftPad(s string) string {
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

// envelope is the decoded top level of a service response
type envelope struct {
	ok     bool
	errMsg string
	result Result
}

// decodeEnvelope parses a response body. Only a body that is not a JSON
// object fails; every missing or malformed field degrades to its zero value.
func decodeEnvelope(body []byte) (envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return envelope{}, err
	}

	env := envelope{}
	env.ok, _ = asBool(fields["ok"])
	env.errMsg, _ = asString(fields["error"])
	env.result.FullText, _ = asString(fields["full_text"])
	env.result.Topics = decodeTopics(fields["topics"])
	env.result.SummaryBullets = decodeSummary(fields["summary"])
	env.result.KeyPoints = decodeKeyPoints(fields["bullets"])

	if env.result.Topics == nil {
		env.result.Topics = []Topic{}
	}
	if env.result.SummaryBullets == nil {
		env.result.SummaryBullets = []string{}
	}
	return env, nil
}

func decodeTopics(raw json.RawMessage) []Topic {
	var topics []Topic
	for _, item := range asArray(raw) {
		var fields map[string]json.RawMessage
		if json.Unmarshal(item, &fields) != nil {
			continue
		}

		var t Topic
		t.Text, _ = asString(fields["text"])
		if secs, ok := asNumber(fields["start_time"]); ok {
			t.StartMs, t.HasStart = secondsToMs(secs), true
		}
		if secs, ok := asNumber(fields["end_time"]); ok {
			t.EndMs, t.HasEnd = secondsToMs(secs), true
		}
		t.Tags = decodeTags(fields["topics"])
		topics = append(topics, t)
	}
	return topics
}

// decodeTags accepts [{"topic": "x"}] or ["x"] and keeps first occurrences
func decodeTags(raw json.RawMessage) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, item := range asArray(raw) {
		tag, ok := asString(item)
		if !ok {
			var fields map[string]json.RawMessage
			if json.Unmarshal(item, &fields) != nil {
				continue
			}
			tag, ok = asString(fields["topic"])
		}
		tag = strings.TrimSpace(tag)
		if !ok || tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

func decodeSummary(raw json.RawMessage) []string {
	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) != nil {
		return nil
	}

	var bullets []string
	for _, item := range asArray(fields["bullets"]) {
		text, ok := asString(item)
		if !ok {
			var obj map[string]json.RawMessage
			if json.Unmarshal(item, &obj) != nil {
				continue
			}
			text, ok = asString(obj["text"])
		}
		if ok && strings.TrimSpace(text) != "" {
			bullets = append(bullets, text)
		}
	}
	return bullets
}

func decodeKeyPoints(raw json.RawMessage) []KeyPoint {
	var points []KeyPoint
	for _, item := range asArray(raw) {
		var fields map[string]json.RawMessage
		if json.Unmarshal(item, &fields) != nil {
			continue
		}
		text, ok := asString(fields["text"])
		if !ok {
			continue
		}
		kp := KeyPoint{Text: text}
		if secs, ok := asNumber(fields["start"]); ok {
			kp.StartMs, kp.HasStart = secondsToMs(secs), true
		}
		points = append(points, kp)
	}
	return points
}

func asArray(raw json.RawMessage) []json.RawMessage {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}
	return items
}

func asString(raw json.RawMessage) (string, bool) {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

func asBool(raw json.RawMessage) (bool, bool) {
	var b bool
	if len(raw) == 0 || json.Unmarshal(raw, &b) != nil {
		return false, false
	}
	return b, true
}

// asNumber accepts JSON numbers and numeric strings
func asNumber(raw json.RawMessage) (float64, bool) {
	var f float64
	if len(raw) == 0 {
		return 0, false
	}
	if json.Unmarshal(raw, &f) == nil {
		return f, !math.IsNaN(f) && f >= 0
	}
	if s, ok := asString(raw); ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && v >= 0 {
			return v, true
		}
	}
	return 0, false
}

func secondsToMs(secs float64) int64 {
	return int64(math.Round(secs * 1000))
}
