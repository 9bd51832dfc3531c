package main

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/BodenmillerGroup/xtiff"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// runConfig is the optional YAML run configuration. Command line flags win
// over file values.
type runConfig struct {
	Output           string   `yaml:"output"`
	Profile          string   `yaml:"profile"`
	ImageName        string   `yaml:"imageName"`
	ChannelNames     []string `yaml:"channelNames"`
	PixelSize        float64  `yaml:"pixelSize"`
	PixelDepth       float64  `yaml:"pixelDepth"`
	Compression      string   `yaml:"compression"`
	CompressionLevel int      `yaml:"compressionLevel"`
	BigTIFF          *bool    `yaml:"bigTiff"`
	BigEndian        *bool    `yaml:"bigEndian"`
}

var (
	configPath       string
	output           string
	profileName      string
	imageName        string
	channelNames     []string
	pixelSize        float64
	pixelDepth       float64
	compressionName  string
	compressionLevel int
	bigTIFF          bool
	bigEndian        bool
	verbose          bool
)

var rootCmd = &cobra.Command{
	Use:   "xtiff [flags] input...",
	Short: "stack grayscale images into a scientific TIFF",
	Long: `xtiff stacks one or more grayscale input images (PNG, JPEG, BMP, TIFF)
into the channels of a single multi-channel TIFF, ImageJ TIFF or OME-TIFF.
A single color input is written as an interleaved RGB image instead.`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "YAML run configuration")
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "destination file")
	rootCmd.Flags().StringVar(&profileName, "profile", "ome", "TIFF profile: plain, imagej or ome")
	rootCmd.Flags().StringVar(&imageName, "image-name", "", "OME image name")
	rootCmd.Flags().StringSliceVar(&channelNames, "channel-names", nil, "ordered channel names")
	rootCmd.Flags().Float64Var(&pixelSize, "pixel-size", 0, "planar pixel size in micrometers")
	rootCmd.Flags().Float64Var(&pixelDepth, "pixel-depth", 0, "pixel depth in micrometers")
	rootCmd.Flags().StringVar(&compressionName, "compression", "none", "codec: none, lzw, deflate or zstd")
	rootCmd.Flags().IntVar(&compressionLevel, "compression-level", 0, "codec level, 0-9")
	rootCmd.Flags().BoolVar(&bigTIFF, "big-tiff", false, "force the BigTIFF layout")
	rootCmd.Flags().BoolVar(&bigEndian, "big-endian", false, "force big endian byte order")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*runConfig, error) {
	cfg := &runConfig{}
	if configPath != "" {
		raw, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", configPath, err)
		}
	}
	flags := cmd.Flags()
	if flags.Changed("output") || cfg.Output == "" {
		cfg.Output = output
	}
	if flags.Changed("profile") || cfg.Profile == "" {
		cfg.Profile = profileName
	}
	if flags.Changed("image-name") {
		cfg.ImageName = imageName
	}
	if flags.Changed("channel-names") {
		cfg.ChannelNames = channelNames
	}
	if flags.Changed("pixel-size") {
		cfg.PixelSize = pixelSize
	}
	if flags.Changed("pixel-depth") {
		cfg.PixelDepth = pixelDepth
	}
	if flags.Changed("compression") || cfg.Compression == "" {
		cfg.Compression = compressionName
	}
	if flags.Changed("compression-level") {
		cfg.CompressionLevel = compressionLevel
	}
	if flags.Changed("big-tiff") {
		cfg.BigTIFF = &bigTIFF
	}
	if flags.Changed("big-endian") {
		cfg.BigEndian = &bigEndian
	}
	return cfg, nil
}

func parseProfile(name string) (xtiff.Profile, error) {
	switch strings.ToLower(name) {
	case "plain", "tiff":
		return xtiff.ProfilePlain, nil
	case "imagej":
		return xtiff.ProfileImageJ, nil
	case "ome", "ome-tiff":
		return xtiff.ProfileOME, nil
	}
	return 0, fmt.Errorf("unknown profile %q (expected plain, imagej or ome)", name)
}

func parseCompression(name string) (xtiff.CompressionType, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return xtiff.CompressionNone, nil
	case "lzw":
		return xtiff.CompressionLZW, nil
	case "deflate", "zlib":
		return xtiff.CompressionDeflate, nil
	case "zstd":
		return xtiff.CompressionZstd, nil
	}
	return 0, fmt.Errorf("unknown compression %q (expected none, lzw, deflate or zstd)", name)
}

func run(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	if verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Output == "" {
		return fmt.Errorf("no destination file (use --output)")
	}
	profile, err := parseProfile(cfg.Profile)
	if err != nil {
		return err
	}
	compression, err := parseCompression(cfg.Compression)
	if err != nil {
		return err
	}

	img, err := stackInputs(args, cfg)
	if err != nil {
		return err
	}

	opts := []xtiff.Option{
		xtiff.WithProfile(profile),
		xtiff.WithSoftware("xtiff"),
		xtiff.WithWarningHandler(func(w xtiff.Warning) {
			sugar.Warnw(w.Message, "param", w.Param)
		}),
	}
	if cfg.ImageName != "" {
		opts = append(opts, xtiff.WithImageName(cfg.ImageName))
	}
	if len(cfg.ChannelNames) > 0 {
		opts = append(opts, xtiff.WithChannelNames(cfg.ChannelNames...))
	}
	if cfg.PixelSize > 0 {
		opts = append(opts, xtiff.WithPixelSize(cfg.PixelSize))
	}
	if cfg.PixelDepth > 0 {
		opts = append(opts, xtiff.WithPixelDepth(cfg.PixelDepth))
	}
	if compression != xtiff.CompressionNone {
		opts = append(opts, xtiff.WithCompression(compression, cfg.CompressionLevel))
	}
	if cfg.BigTIFF != nil {
		opts = append(opts, xtiff.WithBigTIFF(*cfg.BigTIFF))
	}
	if cfg.BigEndian != nil {
		opts = append(opts, xtiff.WithBigEndian(*cfg.BigEndian))
	}

	if err := xtiff.WriteTIFFFile(cfg.Output, img, opts...); err != nil {
		return fmt.Errorf("write %s: %w", cfg.Output, err)
	}
	shape := img.Shape()
	sugar.Infow("wrote image", "path", cfg.Output, "profile", profile.String(), "shape", shape)
	return nil
}

// stackInputs decodes the input images and stacks them into a PixelArray: one
// grayscale channel per input, or a single interleaved RGB image when exactly
// one color input is given.
func stackInputs(paths []string, cfg *runConfig) (*xtiff.PixelArray, error) {
	decoded := make([]image.Image, len(paths))
	var width, height int
	for i, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		m, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		b := m.Bounds()
		if i == 0 {
			width, height = b.Dx(), b.Dy()
		} else if b.Dx() != width || b.Dy() != height {
			return nil, fmt.Errorf("input %s is %dx%d, expected %dx%d like the first input",
				path, b.Dx(), b.Dy(), width, height)
		}
		decoded[i] = m
	}

	if len(decoded) == 1 && !isGrayscale(decoded[0]) {
		return stackRGB(decoded[0], paths[0])
	}

	data := make([]uint8, len(decoded)*height*width)
	for c, m := range decoded {
		b := m.Bounds()
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				g := color.GrayModel.Convert(m.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
				data[(c*height+y)*width+x] = g.Y
			}
		}
	}
	labels := cfg.ChannelNames
	if labels == nil {
		labels = make([]string, len(paths))
		for i, path := range paths {
			base := filepath.Base(path)
			labels[i] = strings.TrimSuffix(base, filepath.Ext(base))
		}
	}
	return xtiff.NewPixelArray(data, []int{len(decoded), height, width},
		xtiff.ChannelLabels(labels...))
}

func stackRGB(m image.Image, path string) (*xtiff.PixelArray, error) {
	b := m.Bounds()
	width, height := b.Dx(), b.Dy()
	data := make([]uint8, height*width*3)
	i := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, bl, _ := m.At(b.Min.X+x, b.Min.Y+y).RGBA()
			data[i] = uint8(r >> 8)
			data[i+1] = uint8(g >> 8)
			data[i+2] = uint8(bl >> 8)
			i += 3
		}
	}
	base := filepath.Base(path)
	return xtiff.NewPixelArray(data, []int{1, 1, 1, height, width, 3},
		xtiff.ArrayName(strings.TrimSuffix(base, filepath.Ext(base))))
}

func isGrayscale(m image.Image) bool {
	switch m.(type) {
	case *image.Gray, *image.Gray16:
		return true
	}
	return false
}
