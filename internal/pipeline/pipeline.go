// Package pipeline runs the per-frame recognize-and-log loop.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"time"

	"github.com/kozaktomas/attendance-tracker/internal/attendance"
	"github.com/kozaktomas/attendance-tracker/internal/capture"
	"github.com/kozaktomas/attendance-tracker/internal/facematch"
	"github.com/kozaktomas/attendance-tracker/internal/fingerprint"
	"github.com/kozaktomas/attendance-tracker/internal/notify"
	"github.com/kozaktomas/attendance-tracker/internal/render"
)

// Annotator stores a visual record of a processed frame.
type Annotator interface {
	Save(frame capture.Frame, faces []render.Face) (string, error)
}

// RecognizedFace is one detected face of a frame. Err is set when the face
// could not be encoded; Result is Unknown in that case.
type RecognizedFace struct {
	Region image.Rectangle
	Result facematch.MatchResult
	Err    error
}

// FrameReport summarizes one processed frame.
type FrameReport struct {
	Seq    int
	Faces  []RecognizedFace
	Logged []attendance.Entry
}

// Processor recognizes faces in frames and logs attendance.
// Notifier defaults to notify.LogNotifier; Annotator is optional.
type Processor struct {
	Analyzer  fingerprint.Analyzer
	Known     []facematch.KnownIdentity
	Ledger    *attendance.Ledger
	Notifier  notify.Notifier
	Annotator Annotator
}

func (p *Processor) notifier() notify.Notifier {
	if p.Notifier == nil {
		return notify.LogNotifier{}
	}
	return p.Notifier
}

// ProcessFrame analyzes a frame, evaluates every encoded face against the
// known identities and logs qualifying results at time now.
//
// Failures confined to the frame (analysis, single face encoding, matching,
// notification, annotation) are logged and do not fail the call. A ledger error
// is returned after the frame is annotated: attendance can no longer be recorded.
func (p *Processor) ProcessFrame(ctx context.Context, frame capture.Frame, now time.Time) (FrameReport, error) {
	report := FrameReport{Seq: frame.Seq}

	detected, err := p.Analyzer.Analyze(ctx, frame.Data)
	if err != nil {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		log.Printf("Error analyzing frame %d: %v", frame.Seq, err)
		return report, nil
	}

	report.Faces = make([]RecognizedFace, len(detected))
	var descriptors []facematch.Descriptor
	var encoded []int
	for i, d := range detected {
		report.Faces[i] = RecognizedFace{Region: d.Region, Result: facematch.Unknown(), Err: d.Err}
		if d.Err != nil {
			log.Printf("Error encoding face %d: %v", d.Index, d.Err)
			continue
		}
		descriptors = append(descriptors, d.Descriptor)
		encoded = append(encoded, i)
	}

	results := facematch.RecognizeFrame(descriptors, p.Known)
	for j, r := range results {
		report.Faces[encoded[j]].Result = r
	}

	logged, logErr := p.Ledger.Log(results, now)
	report.Logged = logged
	for _, entry := range logged {
		if err := p.notifier().Notify(ctx, entry); err != nil {
			log.Printf("WARNING: notification for %s failed: %v", entry.Name, err)
		}
	}

	if p.Annotator != nil {
		if _, err := p.Annotator.Save(frame, report.renderFaces()); err != nil {
			log.Printf("WARNING: could not annotate frame %d: %v", frame.Seq, err)
		}
	}

	return report, logErr
}

func (r FrameReport) renderFaces() []render.Face {
	faces := make([]render.Face, len(r.Faces))
	for i, f := range r.Faces {
		faces[i] = render.Face{Region: f.Region, Result: f.Result}
	}
	return faces
}

// Run processes frames from source one at a time until the source is exhausted
// or ctx is cancelled, both of which end the run cleanly. A capture failure or a
// ledger error stops the run and is returned. clock supplies the logging time of
// each frame.
func (p *Processor) Run(ctx context.Context, source capture.Source, clock func() time.Time) error {
	for {
		frame, err := source.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		if _, err := p.ProcessFrame(ctx, frame, clock()); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("frame %d: %w", frame.Seq, err)
		}
	}
}
