package bookService

import (
	"BibliotecaAI/internal/entity"
	"context"
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

const recognitionPrompt = `This is an image of a book. Extract the name of the author and the title and give me back a
JSON dictionary of the following format {"author": "", "title": ""}. If you see multiple books,
return the book that is most prominent. If you cannot find out the author and
title, return an empty dictionary.`

// recognize makes a single attempt per crop. Every failure, including a panic
// inside a client library, is reported as a Failed outcome.
func (s *bookService) recognize(ctx context.Context, crop entity.BookCrop) (outcome entity.RecognitionOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = entity.Failed(fmt.Sprintf("recognition panicked: %v", r))
		}
	}()

	base64Image, err := s.utils.EncodeImageToBase64(crop.Image, s.config.MaxImageDimension)
	if err != nil {
		return entity.Failed(fmt.Sprintf("encode crop: %v", err))
	}

	response, err := s.vision.AnalyzeImage(ctx, base64Image, recognitionPrompt)
	if err != nil {
		return entity.Failed(fmt.Sprintf("vision request: %v", err))
	}

	info, err := parseBookInfo(response)
	if err != nil {
		return entity.Failed(fmt.Sprintf("parse response: %v", err))
	}
	if !info.Valid() {
		return entity.Failed("title or author missing")
	}

	return entity.Recognized(info)
}

func parseBookInfo(response string) (entity.BookInfo, error) {
	jsonStart := strings.Index(response, "{")
	jsonEnd := strings.LastIndex(response, "}")

	if jsonStart == -1 || jsonEnd == -1 || jsonEnd <= jsonStart {
		return entity.BookInfo{}, errors.New("cannot find valid JSON in response")
	}

	var info entity.BookInfo
	if err := jsoniter.Unmarshal([]byte(response[jsonStart:jsonEnd+1]), &info); err != nil {
		return entity.BookInfo{}, err
	}

	return info, nil
}
