package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/slack-go/slack"
)

// SlackMessenger delivers messages and files through the Slack Web API.
type SlackMessenger struct {
	client *slack.Client
}

func NewSlackMessenger(botToken string) *SlackMessenger {
	return &SlackMessenger{client: slack.New(botToken)}
}

func (s *SlackMessenger) PostMessage(ctx context.Context, channel, text string) error {
	_, _, err := s.client.PostMessageContext(ctx, channel, slack.MsgOptionText(text, false))
	return err
}

func (s *SlackMessenger) UploadFile(ctx context.Context, channel, path, title string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	_, err = s.client.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Channel:  channel,
		File:     path,
		FileSize: int(info.Size()),
		Filename: filepath.Base(path),
		Title:    title,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	return nil
}

// DownloadFile fetches a user-shared file using the bot token for auth.
func (s *SlackMessenger) DownloadFile(ctx context.Context, url, destPath string) error {
	f, err := os.Create(destPath)
	if err != nil {
		return err
	}
	if err := s.client.GetFileContext(ctx, url, f); err != nil {
		f.Close()
		os.Remove(destPath)
		return fmt.Errorf("download %s: %w", url, err)
	}
	return f.Close()
}
