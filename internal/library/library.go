// Package library loads the reference faces of known people.
//
// A reference library is a directory with one subdirectory per person:
//
//	faces/
//	  Alice/
//	    001.jpg
//	    002.jpg
//	  Bob/
//	    portrait.png
//
// The subdirectory name is the identity name.
package library

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/schollz/progressbar/v3"

	"github.com/kozaktomas/attendance-tracker/internal/constants"
	"github.com/kozaktomas/attendance-tracker/internal/facematch"
	"github.com/kozaktomas/attendance-tracker/internal/fingerprint"
)

var (
	// ErrDirectoryNotFound is returned when the library directory does not exist.
	// The returned library is empty, not nil.
	ErrDirectoryNotFound = errors.New("reference directory not found")

	// ErrReferenceLoad marks a single reference image that could not be used.
	ErrReferenceLoad = errors.New("reference image failed")
)

// Options controls how a reference library is loaded.
type Options struct {
	// MaxImagesPerIdentity caps the number of encoded images per person.
	// 0 loads every usable image.
	MaxImagesPerIdentity int

	// ShowProgress renders a progress bar on stderr.
	ShowProgress bool
}

// DefaultOptions returns options that encode one image per person.
func DefaultOptions() Options {
	return Options{MaxImagesPerIdentity: constants.DefaultMaxImagesPerIdentity}
}

type person struct {
	name   string
	images []string
}

// LoadReferenceLibrary encodes the reference images under dir.
//
// Images of a person are tried in lexical order; the first face detected in an
// image becomes one KnownIdentity. Images that fail to decode or contain no
// encodable face are reported and skipped. A person with no usable image is
// left out of the library. Identities are returned in directory order, which is
// the tie-break order used by matching.
func LoadReferenceLibrary(
	ctx context.Context, dir string, analyzer fingerprint.Analyzer, opts Options,
) ([]facematch.KnownIdentity, error) {
	known := []facematch.KnownIdentity{}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		log.Printf("Error: Directory '%s' not found", dir)
		return known, fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
	}

	people, err := scanPeople(dir)
	if err != nil {
		return known, err
	}

	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = newProgressBar(people)
	}

	for _, p := range people {
		loaded := 0
		for _, path := range p.images {
			if err := ctx.Err(); err != nil {
				return known, err
			}
			if opts.MaxImagesPerIdentity > 0 && loaded >= opts.MaxImagesPerIdentity {
				advance(bar)
				continue
			}

			descriptor, err := loadImage(ctx, path, analyzer)
			advance(bar)
			if err != nil {
				report(bar, "Error loading %s: %v", path, err)
				continue
			}

			known = append(known, facematch.KnownIdentity{
				Name:       p.name,
				Descriptor: descriptor,
				Source:     path,
			})
			loaded++
			report(bar, "Loaded face for: %s", p.name)
		}
	}

	if bar != nil {
		bar.Finish()
	}
	return known, nil
}

// scanPeople lists person directories and their image files, both sorted.
func scanPeople(dir string) ([]person, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read reference directory: %w", err)
	}

	var people []person
	for _, e := range entries {
		personDir := filepath.Join(dir, e.Name())
		if st, err := os.Stat(personDir); err != nil || !st.IsDir() {
			continue
		}

		files, err := os.ReadDir(personDir)
		if err != nil {
			log.Printf("Error loading %s: %v", personDir, err)
			continue
		}

		p := person{name: facematch.NormalizeIdentityName(e.Name())}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			p.images = append(p.images, filepath.Join(personDir, f.Name()))
		}
		sort.Strings(p.images)
		if p.name != "" {
			people = append(people, p)
		}
	}
	return people, nil
}

// loadImage returns the descriptor of the first face found in the image at path.
func loadImage(ctx context.Context, path string, analyzer fingerprint.Analyzer) (facematch.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReferenceLoad, err)
	}

	faces, err := analyzer.Analyze(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReferenceLoad, err)
	}
	if len(faces) == 0 {
		return nil, fmt.Errorf("%w: no face detected", ErrReferenceLoad)
	}
	if faces[0].Err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReferenceLoad, faces[0].Err)
	}
	return faces[0].Descriptor, nil
}

func newProgressBar(people []person) *progressbar.ProgressBar {
	total := 0
	for _, p := range people {
		total += len(p.images)
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Loading reference faces"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)
}

func advance(bar *progressbar.ProgressBar) {
	if bar != nil {
		bar.Add(1)
	}
}

// report prints a console line without tearing the progress bar.
func report(bar *progressbar.ProgressBar, format string, args ...any) {
	if bar != nil {
		bar.Clear()
	}
	log.Printf(format, args...)
}
