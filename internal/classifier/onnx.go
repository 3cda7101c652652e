package classifier

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"gopkg.in/yaml.v3"

	"github.com/straja-ai/fdpadvisor/internal/taxonomy"
)

// MetadataFile is the bundle descriptor read from the model directory.
const MetadataFile = "model.yaml"

// onnxMeta describes a tabular classifier exported without zipmap, e.g. by
// skl2onnx.
type onnxMeta struct {
	Model              string          `yaml:"model"`
	Input              string          `yaml:"input"`
	LabelOutput        string          `yaml:"label_output"`
	ProbabilityOutput  string          `yaml:"probability_output"`
	PositiveClass      *int            `yaml:"positive_class"`
	Features           []taxonomy.Code `yaml:"features"`
	FeatureImportances []float64       `yaml:"feature_importances"`
	SHA256             string          `yaml:"sha256"` // optional digest of the model file
}

func loadONNXMeta(bundleDir string) (onnxMeta, error) {
	var meta onnxMeta
	data, err := os.ReadFile(filepath.Join(bundleDir, MetadataFile))
	if err != nil {
		return meta, fmt.Errorf("read model metadata: %w", err)
	}
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("parse model metadata: %w", err)
	}
	if meta.Model == "" {
		meta.Model = "model.onnx"
	}
	if meta.Input == "" {
		meta.Input = "float_input"
	}
	if meta.LabelOutput == "" {
		meta.LabelOutput = "label"
	}
	if meta.ProbabilityOutput == "" {
		meta.ProbabilityOutput = "probabilities"
	}
	if meta.PositiveClass == nil {
		pos := PositiveLabel
		meta.PositiveClass = &pos
	}
	if *meta.PositiveClass < 0 {
		return meta, fmt.Errorf("positive_class %d is negative", *meta.PositiveClass)
	}
	if filepath.IsAbs(meta.Model) || strings.HasPrefix(filepath.Clean(meta.Model), "..") {
		return meta, fmt.Errorf("model path %q must stay inside the bundle", meta.Model)
	}
	return meta, nil
}

// verifyDigest checks the file against a hex SHA-256 digest. An empty want
// skips the check.
func verifyDigest(path, want string) error {
	want = strings.TrimSpace(want)
	if want == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("hash %s: %w", path, err)
	}
	if sum := hex.EncodeToString(h.Sum(nil)); !strings.EqualFold(sum, want) {
		return fmt.Errorf("sha256 mismatch for %s: expected %s got %s", filepath.Base(path), want, sum)
	}
	return nil
}

// ONNXModel runs a binary classifier graph through onnxruntime.
type ONNXModel struct {
	session       *ort.AdvancedSession
	input         *ort.Tensor[float32]
	label         *ort.Tensor[int64]
	probabilities *ort.Tensor[float32]

	numFeatures   int
	positiveClass int
	features      []taxonomy.Code
	importances   []float64

	mu sync.Mutex
}

// LoadONNX initializes the runtime and opens the model in bundleDir.
// libraryPath may be empty, in which case the shared library is searched for.
func LoadONNX(bundleDir, libraryPath string) (*ONNXModel, error) {
	if bundleDir == "" {
		return nil, errors.New("bundleDir is empty")
	}
	meta, err := loadONNXMeta(bundleDir)
	if err != nil {
		return nil, err
	}

	libPath := resolveSharedLibraryPath(bundleDir, libraryPath)
	if libPath == "" {
		return nil, fmt.Errorf("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime")
	}
	if !ort.IsInitialized() {
		ort.SetSharedLibraryPath(libPath)
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	modelPath := filepath.Join(bundleDir, meta.Model)
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", modelPath, err)
	}
	if err := verifyDigest(modelPath, meta.SHA256); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("read model info: %w", err)
	}
	numFeatures, err := featureDim(inputs, meta.Input)
	if err != nil {
		return nil, err
	}
	classes, err := classDim(outputs, meta.ProbabilityOutput)
	if err != nil {
		return nil, err
	}
	if *meta.PositiveClass >= classes {
		return nil, fmt.Errorf("positive_class %d but model has %d classes", *meta.PositiveClass, classes)
	}
	if len(meta.Features) > 0 && len(meta.Features) != numFeatures {
		return nil, fmt.Errorf("%w: metadata lists %d features, graph expects %d", ErrFeatureMismatch, len(meta.Features), numFeatures)
	}
	if len(meta.FeatureImportances) > 0 && len(meta.FeatureImportances) != numFeatures {
		return nil, fmt.Errorf("%w: %d importances for %d features", ErrFeatureMismatch, len(meta.FeatureImportances), numFeatures)
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(numFeatures)))
	if err != nil {
		return nil, fmt.Errorf("allocate input tensor: %w", err)
	}
	label, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("allocate label tensor: %w", err)
	}
	probs, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(classes)))
	if err != nil {
		input.Destroy()
		label.Destroy()
		return nil, fmt.Errorf("allocate probability tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{meta.Input},
		[]string{meta.LabelOutput, meta.ProbabilityOutput},
		[]ort.Value{input},
		[]ort.Value{label, probs},
		nil,
	)
	if err != nil {
		input.Destroy()
		label.Destroy()
		probs.Destroy()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &ONNXModel{
		session:       session,
		input:         input,
		label:         label,
		probabilities: probs,
		numFeatures:   numFeatures,
		positiveClass: *meta.PositiveClass,
		features:      meta.Features,
		importances:   meta.FeatureImportances,
	}, nil
}

func featureDim(inputs []ort.InputOutputInfo, name string) (int, error) {
	for _, in := range inputs {
		if in.Name != name {
			continue
		}
		dims := in.Dimensions
		if len(dims) != 2 || dims[1] <= 0 {
			return 0, fmt.Errorf("input %q: expected shape [batch, features], got %v", name, dims)
		}
		return int(dims[1]), nil
	}
	return 0, fmt.Errorf("model has no input named %q", name)
}

func classDim(outputs []ort.InputOutputInfo, name string) (int, error) {
	for _, out := range outputs {
		if out.Name != name {
			continue
		}
		dims := out.Dimensions
		if len(dims) != 2 {
			return 0, fmt.Errorf("output %q: expected shape [batch, classes], got %v", name, dims)
		}
		if dims[1] <= 0 {
			return 2, nil
		}
		return int(dims[1]), nil
	}
	return 0, fmt.Errorf("model has no output named %q", name)
}

func (m *ONNXModel) NumFeatures() int { return m.numFeatures }

func (m *ONNXModel) FeatureNames() []taxonomy.Code {
	return append([]taxonomy.Code(nil), m.features...)
}

func (m *ONNXModel) FeatureImportances() ([]float64, bool) {
	if len(m.importances) == 0 {
		return nil, false
	}
	return append([]float64(nil), m.importances...), true
}

func (m *ONNXModel) Predict(features []float64) (int, error) {
	label, _, err := m.Score(features)
	return label, err
}

func (m *ONNXModel) PredictProbability(features []float64) (float64, error) {
	_, p, err := m.Score(features)
	return p, err
}

// Score runs one inference. Calls are serialized on the shared session.
func (m *ONNXModel) Score(features []float64) (int, float64, error) {
	if len(features) != m.numFeatures {
		return 0, 0, fmt.Errorf("%w: got %d features, want %d", ErrFeatureMismatch, len(features), m.numFeatures)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return 0, 0, errors.New("onnx model closed")
	}

	in := m.input.GetData()
	for i, f := range features {
		in[i] = float32(f)
	}
	if err := m.session.Run(); err != nil {
		return 0, 0, fmt.Errorf("onnx run: %w", err)
	}

	label := int(m.label.GetData()[0])
	prob := float64(m.probabilities.GetData()[m.positiveClass])
	return label, prob, nil
}

// Close destroys the session and its tensors.
func (m *ONNXModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	err := m.session.Destroy()
	m.session = nil
	m.input.Destroy()
	m.label.Destroy()
	m.probabilities.Destroy()
	return err
}

// resolveSharedLibraryPath locates the onnxruntime shared library.
// ONNXRUNTIME_SHARED_LIBRARY_PATH wins, then the configured path, then
// common names and locations.
func resolveSharedLibraryPath(bundleDir, configured string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}
	if configured = strings.TrimSpace(configured); configured != "" {
		return configured
	}

	names := []string{
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"libonnxruntime.so",
		"onnxruntime.so",
		"onnxruntime.dll",
	}
	dirs := []string{
		bundleDir,
		filepath.Join(bundleDir, "lib"),
		".",
		"/opt/homebrew/lib",
		"/usr/local/lib",
		"/usr/lib",
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
