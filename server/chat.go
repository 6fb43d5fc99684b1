package server

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/skedule/plugin/ai/speech"
	"github.com/hrygo/skedule/plugin/ai/timeout"
	apperrors "github.com/hrygo/skedule/server/internal/errors"
	"github.com/hrygo/skedule/server/internal/observability"
)

// maxAudioBytes caps uploaded recordings.
const maxAudioBytes = 10 << 20

const agentFailureMessage = "Lỗi: Không có phản hồi từ agent."

type chatRequest struct {
	Prompt string `json:"prompt" form:"prompt"`
}

// ChatResponse is the reply to POST /chat.
type ChatResponse struct {
	TextResponse string `json:"text_response"`
	AudioBase64  string `json:"audio_base64"`
}

// handleChat accepts a text prompt and/or an audio file. Audio takes precedence.
func (s *Server) handleChat(c echo.Context) error {
	ctx := c.Request().Context()
	owner := ownerOf(c)
	start := time.Now()

	prompt, input, err := s.readPrompt(c)
	if err == nil && prompt == "" {
		err = apperrors.InvalidArgument("Cần cung cấp prompt dạng văn bản hoặc file âm thanh.")
	}
	if err != nil {
		s.metrics.RecordRequest(input, time.Since(start), true)
		return err
	}

	if reqCtx, ok := observability.FromContext(ctx); ok {
		reqCtx.Info("prompt received",
			slog.String(observability.LogFieldInput, input),
			slog.Int(observability.LogFieldMessageLen, len([]rune(prompt))),
		)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout.AgentTimeout)
	defer cancel()
	answer, err := s.agent.Run(runCtx, owner, prompt)
	if err != nil {
		s.metrics.RecordRequest(input, time.Since(start), true)
		return apperrors.AgentExecutionFailed(agentFailureMessage, err)
	}

	resp := ChatResponse{TextResponse: answer}
	if s.synthesizer != nil {
		audio, err := s.synthesizer.Synthesize(ctx, answer)
		if err != nil {
			// The text reply is still useful without audio.
			s.logger.Warn("text to speech failed", "error", err)
		} else {
			resp.AudioBase64 = base64.StdEncoding.EncodeToString(audio)
		}
	}
	s.metrics.RecordRequest(input, time.Since(start), false)
	return c.JSON(http.StatusOK, resp)
}

// readPrompt returns the caller's text and the input kind ("text" or "voice"),
// transcribing the uploaded audio when present.
func (s *Server) readPrompt(c echo.Context) (string, string, error) {
	req := c.Request()
	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		var body chatRequest
		if err := c.Bind(&body); err != nil {
			return "", "text", apperrors.Wrap(err, apperrors.ErrCodeInvalidArgument, "Yêu cầu JSON không hợp lệ.")
		}
		return strings.TrimSpace(body.Prompt), "text", nil
	}

	file, err := c.FormFile("audio_file")
	if err != nil {
		// No upload, or not a multipart request at all.
		return strings.TrimSpace(c.FormValue("prompt")), "text", nil
	}

	if s.recognizer == nil {
		return "", "voice", apperrors.InvalidArgument("Chức năng giọng nói chưa được bật.")
	}
	src, err := file.Open()
	if err != nil {
		return "", "voice", apperrors.Wrap(err, apperrors.ErrCodeInvalidArgument, "Không thể đọc file âm thanh.")
	}
	defer src.Close()
	audio, err := io.ReadAll(io.LimitReader(src, maxAudioBytes+1))
	if err != nil {
		return "", "voice", apperrors.Wrap(err, apperrors.ErrCodeInvalidArgument, "Không thể đọc file âm thanh.")
	}
	if len(audio) > maxAudioBytes {
		return "", "voice", apperrors.InvalidArgument("File âm thanh quá lớn.")
	}

	text, err := s.recognizer.Transcribe(c.Request().Context(), file.Filename, audio)
	if err != nil {
		return "", "voice", speechError(err)
	}
	return strings.TrimSpace(text), "voice", nil
}

func speechError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, speech.ErrSpeechTooShort):
		return apperrors.Wrap(err, apperrors.ErrCodeSpeechTooShort, "File âm thanh quá ngắn. Vui lòng nhấn giữ nút micro để nói.")
	case errors.Is(err, speech.ErrSpeechUnintelligible):
		return apperrors.Wrap(err, apperrors.ErrCodeSpeechUnintelligible, "Rất tiếc, tôi không thể nghe rõ bạn nói gì. Vui lòng thử lại.")
	case errors.Is(err, speech.ErrInvalidAudio):
		return apperrors.Wrap(err, apperrors.ErrCodeInvalidArgument, "Không thể xử lý file âm thanh.")
	default:
		return apperrors.Wrap(err, apperrors.ErrCodeSpeechServiceUnavailable, "Dịch vụ nhận dạng giọng nói tạm thời không khả dụng.")
	}
}
