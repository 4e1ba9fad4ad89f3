/*
 * This file is part of FieldVoice (https://github.com/fieldvoice/fieldvoice-hub).
 * Copyright (C) 2025 FieldVoice
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/fieldvoice/fieldvoice-hub/internal/agent"
	"github.com/fieldvoice/fieldvoice-hub/internal/client"
	"github.com/fieldvoice/fieldvoice-hub/internal/report"
)

const defaultHubURL = "http://localhost:3000"

type cli struct {
	client *client.Client
	format string
}

func main() {
	var (
		hubURL      = flag.String("hub", "", "URL of the FieldVoice hub (skips discovery)")
		candidates  = flag.String("candidates", defaultHubURL, "Comma-separated hub URLs to probe in order")
		action      = flag.String("action", "health", "Action to perform: health, transcribe, summarize, pdf, email, voice, tts, reports")
		audioPath   = flag.String("audio", "", "Path to an audio file for transcribe/voice actions")
		audioFmt    = flag.String("format", "m4a", "Audio format: m4a, mp4, wav, mp3, webm")
		text        = flag.String("text", "", "Text input for summarize/tts actions")
		contextJSON = flag.String("context", "", "Screen context JSON for the voice action")
		outPath     = flag.String("out", "", "Output file for pdf/tts actions")
		format      = flag.String("output", "table", "Output format: table, json")
	)
	flag.Parse()

	var c *client.Client
	if *hubURL != "" {
		c = client.NewWithBaseURL(*hubURL)
	} else {
		c = client.New(strings.Split(*candidates, ",")...)
	}

	app := &cli{client: c, format: *format}
	ctx := context.Background()

	var err error
	switch *action {
	case "health":
		err = app.health(ctx)
	case "transcribe":
		err = app.transcribe(ctx, *audioPath, *audioFmt)
	case "summarize":
		err = app.summarize(ctx, *text)
	case "pdf":
		err = app.generatePDF(ctx, *text, *outPath)
	case "email":
		err = app.sendEmail(ctx, *text)
	case "voice":
		err = app.voiceCommand(ctx, *audioPath, *audioFmt, *contextJSON)
	case "tts":
		err = app.textToSpeech(ctx, *text, *outPath)
	case "reports":
		err = app.listReports(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown action %q\n", *action)
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (c *cli) health(ctx context.Context) error {
	status, err := c.client.Health(ctx)
	if err != nil {
		return err
	}

	if c.format == "json" {
		return printJSON(status)
	}

	fmt.Printf("Hub:     %s\n", status.Service)
	fmt.Printf("Status:  %s\n", status.Status)
	fmt.Printf("Version: %s\n", status.Version)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nSERVICE\tSTATE")
	fmt.Fprintln(w, "-------\t-----")
	for name, state := range status.Services {
		fmt.Fprintf(w, "%s\t%s\n", name, state)
	}
	return w.Flush()
}

func (c *cli) transcribe(ctx context.Context, audioPath, format string) error {
	audio, err := readAudio(audioPath)
	if err != nil {
		return err
	}

	text, err := c.client.Transcribe(ctx, audio, format)
	if err != nil {
		return err
	}

	if c.format == "json" {
		return printJSON(map[string]string{"transcription": text})
	}
	fmt.Println(text)
	return nil
}

func (c *cli) summarize(ctx context.Context, transcription string) error {
	if transcription == "" {
		return fmt.Errorf("-text is required for the summarize action")
	}

	summary, err := c.client.Summarize(ctx, transcription)
	if err != nil {
		return err
	}

	if c.format == "json" {
		return printJSON(summary)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tVALUE")
	fmt.Fprintln(w, "-----\t-----")
	for _, field := range summaryRows(summary) {
		fmt.Fprintf(w, "%s\t%s\n", field[0], field[1])
	}
	return w.Flush()
}

func (c *cli) generatePDF(ctx context.Context, transcription, outPath string) error {
	summary, err := c.summaryFromText(ctx, transcription)
	if err != nil {
		return err
	}

	data, filename, err := c.client.GeneratePDF(ctx, summary, transcription)
	if err != nil {
		return err
	}

	if outPath == "" {
		outPath = filename
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("writing PDF: %w", err)
	}
	fmt.Printf("Wrote %d bytes to %s\n", len(data), outPath)
	return nil
}

func (c *cli) sendEmail(ctx context.Context, transcription string) error {
	summary, err := c.summaryFromText(ctx, transcription)
	if err != nil {
		return err
	}

	result, err := c.client.SendEmail(ctx, summary, transcription, summary.TechnicianName)
	if err != nil {
		return err
	}

	if c.format == "json" {
		return printJSON(result)
	}

	if result.Success {
		fmt.Printf("Sent to: %s\n", strings.Join(result.Recipients, ", "))
	} else {
		fmt.Printf("Not sent: %s\n", result.Message)
	}
	return nil
}

func (c *cli) voiceCommand(ctx context.Context, audioPath, format, contextJSON string) error {
	audio, err := readAudio(audioPath)
	if err != nil {
		return err
	}

	var screen agent.ScreenContext
	if contextJSON != "" {
		if err := json.Unmarshal([]byte(contextJSON), &screen); err != nil {
			return fmt.Errorf("parsing -context JSON: %w", err)
		}
	}

	resp, err := c.client.VoiceCommand(ctx, audio, format, screen)
	if err != nil {
		return err
	}

	if c.format == "json" {
		return printJSON(resp)
	}

	fmt.Printf("Action:     %s\n", resp.Action)
	if resp.Target != "" {
		fmt.Printf("Target:     %s\n", resp.Target)
	}
	if resp.Value != "" {
		fmt.Printf("Value:      %s\n", resp.Value)
	}
	fmt.Printf("Confidence: %.2f\n", resp.Confidence)
	fmt.Printf("Success:    %v\n", resp.Success)
	fmt.Printf("Speak:      %s\n", resp.TTSText)
	return nil
}

func (c *cli) textToSpeech(ctx context.Context, text, outPath string) error {
	if text == "" {
		return fmt.Errorf("-text is required for the tts action")
	}

	audio, contentType, err := c.client.TextToSpeech(ctx, text)
	if err != nil {
		return err
	}

	if outPath == "" {
		outPath = "speech" + extensionFor(contentType)
	}
	if err := os.WriteFile(outPath, audio, 0o644); err != nil {
		return fmt.Errorf("writing audio: %w", err)
	}
	fmt.Printf("Wrote %d bytes (%s) to %s\n", len(audio), contentType, outPath)
	return nil
}

func (c *cli) listReports(ctx context.Context) error {
	resp, err := c.client.ListReports(ctx, 1, 50)
	if err != nil {
		return err
	}

	if c.format == "json" {
		return printJSON(resp)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "UUID\tTECHNICIAN\tLOCATION\tSOURCE\tTIMESTAMP")
	fmt.Fprintln(w, "----\t----------\t--------\t------\t---------")
	for _, r := range resp.Reports {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.UUID,
			r.TechnicianName,
			r.Location,
			r.Source,
			r.Timestamp.Format("2006-01-02 15:04"),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nTotal: %d reports\n", resp.Total)
	return nil
}

// summaryFromText runs the hub's extraction over -text so pdf and email
// actions work from a raw transcription.
func (c *cli) summaryFromText(ctx context.Context, transcription string) (*report.CloseoutSummary, error) {
	if transcription == "" {
		return nil, fmt.Errorf("-text is required for this action")
	}
	return c.client.Summarize(ctx, transcription)
}

func readAudio(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("-audio is required for this action")
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading audio file: %w", err)
	}
	return data, nil
}

func summaryRows(s *report.CloseoutSummary) [][2]string {
	return [][2]string{
		{"Technician", s.TechnicianName},
		{"Location", s.Location},
		{"Onsite Contact", s.OnsiteContact},
		{"Support Contact", s.SupportContact},
		{"Work Completed", s.WorkCompleted},
		{"Delays", s.Delays},
		{"Troubleshooting", s.TroubleshootingSteps},
		{"Scope Completed", s.ScopeCompleted},
		{"Released By", s.ReleasedBy},
		{"Release Code", s.ReleaseCode},
		{"Return Tracking", s.ReturnTracking},
		{"Expenses", s.Expenses},
		{"Materials Used", s.MaterialsUsed},
	}
}

func extensionFor(contentType string) string {
	switch contentType {
	case "audio/mpeg":
		return ".mp3"
	case "audio/wav":
		return ".wav"
	case "audio/opus":
		return ".opus"
	case "audio/flac":
		return ".flac"
	default:
		return ".bin"
	}
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
