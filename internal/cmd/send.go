package cmd

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/accordhq/accord/internal/api"
	"github.com/accordhq/accord/internal/output"
	"github.com/accordhq/accord/internal/rest"
)

var (
	sendChannel   string
	sendContent   string
	sendFiles     []string
	sendThumbnail int
	sendTTS       bool
	sendNonce     string
	sendReason    string
	sendOut       string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a message to a channel",
	Long: `Send a message to a channel, optionally with file attachments.

Attachments are uploaded as multipart form data alongside the message
payload. The created message is printed as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(sendChannel) == "" {
			return errors.New("--channel is required")
		}
		if strings.TrimSpace(sendContent) == "" && len(sendFiles) == 0 {
			return errors.New("one of --content or --file is required")
		}
		if sendThumbnail != 0 && (sendThumbnail < 64 || sendThumbnail > 4096) {
			return errors.New("--thumbnail must be between 64 and 4096")
		}

		files, err := readAttachments(sendFiles)
		if err != nil {
			return err
		}
		if sendThumbnail > 0 {
			for i, f := range files {
				if files[i], err = shrinkAttachment(f, sendThumbnail); err != nil {
					return err
				}
			}
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, closer, err := newAPIClient(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closer()

		var opts []rest.RequestOpt
		if sendReason != "" {
			opts = append(opts, rest.WithReason(sendReason))
		}

		msg, err := client.CreateMessage(cmd.Context(), sendChannel, api.CreateMessageParams{
			Content: sendContent,
			TTS:     sendTTS,
			Nonce:   sendNonce,
		}, files, opts...)
		if err != nil {
			return err
		}

		sink, err := openSink(sendOut)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		return output.WriteJSON(sink.writer, msg)
	},
}

// readAttachments loads each path into a buffered upload so failed requests
// can be retried with the same bytes.
func readAttachments(paths []string) ([]rest.File, error) {
	files := make([]rest.File, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read attachment %s: %w", path, err)
		}
		name := filepath.Base(path)
		contentType := mime.TypeByExtension(filepath.Ext(name))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		files = append(files, rest.File{
			Name:        name,
			ContentType: contentType,
			Data:        data,
		})
	}
	return files, nil
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVar(&sendChannel, "channel", "", "Channel ID to send to")
	sendCmd.Flags().StringVar(&sendContent, "content", "", "Message text")
	sendCmd.Flags().StringArrayVar(&sendFiles, "file", nil, "Attachment path (repeatable)")
	sendCmd.Flags().IntVar(&sendThumbnail, "thumbnail", 0, "Downscale image attachments to this max dimension before upload (0 uploads as-is)")
	sendCmd.Flags().BoolVar(&sendTTS, "tts", false, "Send as text-to-speech")
	sendCmd.Flags().StringVar(&sendNonce, "nonce", "", "Deduplication nonce")
	sendCmd.Flags().StringVar(&sendReason, "reason", "", "Audit log reason")
	sendCmd.Flags().StringVar(&sendOut, "out", "", "Write output to a file (default stdout)")
}
