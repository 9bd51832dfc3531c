package xtiff

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// An Encoder consumes an ordered plane sequence plus its resolved write
// parameters and description document, and writes the binary TIFF file. The
// built-in encoder (NewEncoder) is used unless WithEncoder replaces it.
type Encoder interface {
	Encode(planes *PlaneSequence, params *WriteParameters, description []byte) error
}

func defaultWarningHandler(w Warning) {
	fmt.Fprintf(os.Stderr, "xtiff: warning: %s\n", w)
}

// WriteTIFF writes an image to a stream with TZCYX plane order. The profile
// defaults to OME-TIFF; see the Option values for the recognized settings.
// Validation failures abort before any byte is written.
func WriteTIFF(w io.Writer, img *PixelArray, options ...Option) error {
	cfg := defaultConfig()
	for _, o := range options {
		if err := o(cfg); err != nil {
			return err
		}
	}
	return writeTIFF(w, img, cfg, "")
}

// WriteTIFFFile writes an image to the named file, creating or truncating it.
// The file name additionally feeds image-name derivation for OME-TIFF files
// and is cross-checked against the profile's customary suffixes.
func WriteTIFFFile(path string, img *PixelArray, options ...Option) error {
	cfg := defaultConfig()
	for _, o := range options {
		if err := o(cfg); err != nil {
			return err
		}
	}
	warnFileName(cfg, path)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	werr := writeTIFF(f, img, cfg, path)
	if cerr := f.Close(); werr == nil && cerr != nil {
		return fmt.Errorf("close %s: %w", path, cerr)
	}
	return werr
}

func warnFileName(cfg *config, path string) {
	lower := strings.ToLower(path)
	if !strings.HasSuffix(lower, ".tiff") {
		cfg.warn("destination", "the specified TIFF file name does not end with .tiff: %s", path)
	}
	if cfg.profile == ProfileOME {
		if !strings.HasSuffix(lower, ".ome.tiff") {
			cfg.warn("destination", "the specified OME-TIFF file name does not end with .ome.tiff: %s", path)
		}
	} else if strings.HasSuffix(lower, ".ome.tiff") {
		cfg.warn("destination", "the specified non-OME-TIFF file name ends with .ome.tiff: %s", path)
	}
}

func writeTIFF(w io.Writer, img *PixelArray, cfg *config, destName string) error {
	norm, err := img.Normalize()
	if err != nil {
		return err
	}
	if err := validateProfile(norm, cfg.profile); err != nil {
		return err
	}
	params, err := resolveParameters(cfg, norm, destName)
	if err != nil {
		return err
	}

	var description []byte
	switch cfg.profile {
	case ProfileOME:
		description, err = cfg.generator(norm, params, cfg.generatorArgs)
		if err != nil {
			return fmt.Errorf("generate OME-XML: %w", err)
		}
	case ProfileImageJ:
		description = []byte(imageJDescription(norm, params))
	default:
		if params.Description != "" {
			description = []byte(params.Description)
		}
	}

	planes, err := NewPlaneSequence(norm)
	if err != nil {
		return err
	}
	enc := cfg.encoder
	if enc == nil {
		enc = NewEncoder(w)
	}
	return enc.Encode(planes, params, description)
}
