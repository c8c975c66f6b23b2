package lark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	larkIm "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/garyjia/billing-workflow/internal/application/port"
)

// ErrNoChat is returned when no chat id is configured
var ErrNoChat = errors.New("lark chat id not configured")

// MessageAPI handles Lark messaging operations
type MessageAPI struct {
	client *Client
	logger *zap.Logger
}

// NewMessageAPI creates a new message API handler
func NewMessageAPI(client *Client, logger *zap.Logger) *MessageAPI {
	return &MessageAPI{
		client: client,
		logger: logger,
	}
}

// Notify posts text to the configured chat
func (m *MessageAPI) Notify(ctx context.Context, text string) error {
	if m.client.chatID == "" {
		return ErrNoChat
	}
	content, err := TextContent(text)
	if err != nil {
		return err
	}
	_, err = m.SendMessage(ctx, "chat_id", m.client.chatID, "text", content)
	return err
}

// SendMessage sends a message to a user or group
func (m *MessageAPI) SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error) {
	req := larkIm.NewCreateMessageReqBuilder().
		ReceiveIdType(receiveIDType).
		Body(larkIm.NewCreateMessageReqBodyBuilder().
			ReceiveId(receiveID).
			MsgType(msgType).
			Content(content).
			Build()).
		Build()

	resp, err := m.client.client.Im.Message.Create(ctx, req)
	if err != nil {
		m.logger.Error("Failed to send message",
			zap.String("receive_id", receiveID),
			zap.Error(err))
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		m.logger.Error("API returned failure",
			zap.String("receive_id", receiveID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return "", fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}

	m.logger.Debug("Message sent",
		zap.String("message_id", messageID),
		zap.String("receive_id", receiveID))

	return messageID, nil
}

// TextContent encodes text as the content of a Lark text message
func TextContent(text string) (string, error) {
	raw, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("failed to encode message content: %w", err)
	}
	return string(raw), nil
}

var _ port.ChatNotifier = (*MessageAPI)(nil)
