package vad

import (
	"errors"
	"testing"
	"time"
)

// thresholdDetector marks frames whose first sample is non-zero as speech
type thresholdDetector struct {
	size int
	err  error
}

func (d thresholdDetector) IsSpeech(frame []int16) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	return frame[0] != 0, nil
}

func (d thresholdDetector) FrameSize() int { return d.size }
func (d thresholdDetector) Close() error   { return nil }

func TestAnalyzer_Analyze(t *testing.T) {
	cfg := DefaultConfig()
	analyzer := NewAnalyzerWithDetector(thresholdDetector{size: 160}, cfg)

	// 1s silence followed by 1s "speech", plus a partial frame
	samples := make([]float32, 32000+50)
	for i := 16000; i < 32000; i++ {
		samples[i] = 0.5
	}

	report, err := analyzer.Analyze(samples)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if report.Frames != 200 {
		t.Errorf("Frames = %d, want 200", report.Frames)
	}
	if report.SpeechFrames != 100 {
		t.Errorf("SpeechFrames = %d, want 100", report.SpeechFrames)
	}
	if report.Speech != time.Second {
		t.Errorf("Speech = %v, want 1s", report.Speech)
	}
	if report.FirstSpeech != time.Second {
		t.Errorf("FirstSpeech = %v, want 1s", report.FirstSpeech)
	}
	if !report.HasSpeech {
		t.Error("HasSpeech = false, want true")
	}
	if report.Ratio() != 0.5 {
		t.Errorf("Ratio() = %v, want 0.5", report.Ratio())
	}
}

func TestAnalyzer_ShortSpeechBelowMinimum(t *testing.T) {
	analyzer := NewAnalyzerWithDetector(thresholdDetector{size: 160}, DefaultConfig())

	samples := make([]float32, 16000)
	for i := 0; i < 1600; i++ { // 100ms
		samples[i] = 0.5
	}

	report, err := analyzer.Analyze(samples)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.HasSpeech {
		t.Errorf("HasSpeech = true for %v of speech", report.Speech)
	}
}

func TestAnalyzer_Empty(t *testing.T) {
	analyzer := NewAnalyzerWithDetector(thresholdDetector{size: 160}, DefaultConfig())

	report, err := analyzer.Analyze(nil)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.Frames != 0 || report.Ratio() != 0 || report.HasSpeech {
		t.Errorf("empty report = %+v", report)
	}
}

func TestAnalyzer_DetectorError(t *testing.T) {
	analyzer := NewAnalyzerWithDetector(thresholdDetector{size: 160, err: errors.New("boom")}, DefaultConfig())

	if _, err := analyzer.Analyze(make([]float32, 320)); err == nil {
		t.Error("Analyze() should propagate detector errors")
	}
}

func TestNewWebRTCVAD(t *testing.T) {
	tests := []struct {
		name    string
		rate    int
		wantErr bool
	}{
		{"16k", 16000, false},
		{"48k", 48000, false},
		{"invalid", 44100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.SampleRate = tt.rate
			_, err := NewWebRTCVAD(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewWebRTCVAD() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWebRTCVAD_Silence(t *testing.T) {
	analyzer, err := NewAnalyzer(DefaultConfig())
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}
	defer analyzer.Close()

	report, err := analyzer.Analyze(make([]float32, 16000))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.Frames != 100 {
		t.Errorf("Frames = %d, want 100", report.Frames)
	}
	if report.HasSpeech {
		t.Error("silence should not contain speech")
	}
}

func TestWebRTCVAD_FrameSizeMismatch(t *testing.T) {
	detector, err := NewWebRTCVAD(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := detector.IsSpeech(make([]int16, 10)); err == nil {
		t.Error("IsSpeech() should reject a wrongly sized frame")
	}
}
