package discord

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// MessageLimit is the maximum length Discord accepts for a message body.
const MessageLimit = 2000

type FileMessage struct {
	ChannelID string
	Content   string
	Filename  string
	FileBody  []byte
}

type Client interface {
	SendChannelMessage(channelID, content string) error
	SendChannelMessageWithFile(msg FileMessage) error
	ResolveChannelName(channelID string) string
	Close() error
}

// Mirror posts transcript lines into one text channel. A Mirror without a
// client or channel is disabled and every call is a no-op.
type Mirror struct {
	client    Client
	channelID string
}

func NewMirror(client Client, channelID string) *Mirror {
	return &Mirror{client: client, channelID: channelID}
}

func (m *Mirror) Enabled() bool {
	return m != nil && m.client != nil && m.channelID != ""
}

func (m *Mirror) Post(at time.Time, text string) error {
	if !m.Enabled() {
		return nil
	}
	line := fmt.Sprintf("`%s` %s", at.Format("15:04:05"), strings.TrimSpace(text))
	for _, part := range SplitMessage(line, MessageLimit) {
		if err := m.client.SendChannelMessage(m.channelID, part); err != nil {
			return fmt.Errorf("send transcript to discord channel %s: %w", m.channelID, err)
		}
	}
	return nil
}

// PostDocument attaches the day's document to the channel.
func (m *Mirror) PostDocument(filename string, body []byte) error {
	if !m.Enabled() {
		return nil
	}
	err := m.client.SendChannelMessageWithFile(FileMessage{
		ChannelID: m.channelID,
		Content:   "transcript: " + filename,
		Filename:  filename,
		FileBody:  body,
	})
	if err != nil {
		return fmt.Errorf("send document to discord channel %s: %w", m.channelID, err)
	}
	return nil
}

func (m *Mirror) Close() error {
	if m == nil || m.client == nil {
		return nil
	}
	return m.client.Close()
}

func (m *Mirror) LogTarget() {
	if !m.Enabled() {
		slog.Info("discord mirror disabled")
		return
	}
	slog.Info("discord mirror enabled", "channel_id", m.channelID, "channel_name", m.client.ResolveChannelName(m.channelID))
}

// SplitMessage breaks s into pieces of at most limit runes.
func SplitMessage(s string, limit int) []string {
	runes := []rune(s)
	if len(runes) <= limit {
		return []string{s}
	}
	parts := make([]string, 0, len(runes)/limit+1)
	for len(runes) > limit {
		parts = append(parts, string(runes[:limit]))
		runes = runes[limit:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
