package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

var ErrPlateNotDetected = errors.New("no vehicle plate found in image")

// TextDetector is the part of the Rekognition client the plate reader needs.
type TextDetector interface {
	DetectText(ctx context.Context, params *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

// Registration numbers such as KA01AB1234 or DL3C1234 once spaces and
// separators are stripped.
var plateRegex = regexp.MustCompile(`^[A-Z]{2}[0-9]{1,2}[A-Z]{0,3}[0-9]{4}$`)

var plateSeparators = strings.NewReplacer(" ", "", "-", "", ".", "")

type LPRService struct {
	detector TextDetector
}

func NewLPRService(detector TextDetector) *LPRService {
	return &LPRService{detector: detector}
}

// ReadPlate returns the highest-confidence text line that looks like a plate.
func (s *LPRService) ReadPlate(ctx context.Context, imageBytes []byte) (string, float32, error) {
	if s.detector == nil {
		return "", 0, fmt.Errorf("text detector is not configured")
	}
	if len(imageBytes) == 0 {
		return "", 0, fmt.Errorf("%w: empty image", ErrPlateNotDetected)
	}

	result, err := s.detector.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: imageBytes},
	})
	if err != nil {
		log.Printf("LPRService: DetectText failed: %v", err)
		return "", 0, fmt.Errorf("rekognition: %w", err)
	}

	var best string
	var bestConfidence float32
	var seen []string
	for _, td := range result.TextDetections {
		if td.DetectedText == nil || td.Confidence == nil {
			continue
		}
		if td.Type != types.TextTypesLine && td.Type != types.TextTypesWord {
			continue
		}
		txt := plateSeparators.Replace(strings.ToUpper(*td.DetectedText))
		seen = append(seen, txt)
		if plateRegex.MatchString(txt) && *td.Confidence > bestConfidence {
			best = txt
			bestConfidence = *td.Confidence
		}
	}

	if best == "" {
		log.Printf("LPRService: no plate among %d text blocks: %s", len(seen), strings.Join(seen, ", "))
		return "", 0, ErrPlateNotDetected
	}
	log.Printf("LPRService: detected plate '%s' (%.2f)", best, bestConfidence)
	return best, bestConfidence, nil
}
