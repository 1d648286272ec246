// mediatester is a manual smoke tool for the one-shot media operations:
// speech synthesis and video generation against the live backends.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/omnichat/backend/internal/config"
	"github.com/omnichat/backend/internal/service/ai"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] could not load .env, using system environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	mode := flag.String("mode", "", "test mode: tts or video")
	text := flag.String("text", "", "TTS input text")
	prompt := flag.String("prompt", "", "video generation prompt")
	outputPath := flag.String("out", "", "TTS output audio file path")
	timeout := flag.Duration("timeout", 5*time.Minute, "request timeout")

	flag.Parse()

	if *mode != "tts" && *mode != "video" {
		flag.Usage()
		log.Fatal("specify -mode=tts or -mode=video")
	}

	svc := ai.NewService(cfg.AI, cfg.Speech)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *mode {
	case "tts":
		runTTS(ctx, svc, *text, *outputPath)
	case "video":
		runVideo(ctx, svc, *prompt)
	}
}

func runTTS(ctx context.Context, svc *ai.Service, text, outputPath string) {
	if text == "" {
		log.Fatal("provide -text for TTS")
	}
	if outputPath == "" {
		outputPath = fmt.Sprintf("tts-%d.mp3", time.Now().Unix())
	}

	started := time.Now()
	audio, err := svc.SynthesizeSpeech(ctx, text)
	if err != nil {
		log.Fatalf("speech synthesis failed: %v", err)
	}

	if err := os.WriteFile(outputPath, audio, 0o644); err != nil {
		log.Fatalf("write %s: %v", outputPath, err)
	}

	log.Printf("synthesized %d bytes in %s -> %s", len(audio), time.Since(started).Round(time.Millisecond), outputPath)
}

func runVideo(ctx context.Context, svc *ai.Service, prompt string) {
	if prompt == "" {
		log.Fatal("provide -prompt for video generation")
	}

	started := time.Now()
	attachment, err := svc.GenerateVideo(ctx, prompt)
	if err != nil {
		log.Fatalf("video generation failed: %v", err)
	}

	log.Printf("video ready in %s: %s", time.Since(started).Round(time.Second), attachment.URL)
}
