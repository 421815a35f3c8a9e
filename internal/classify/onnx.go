package classify

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Safe to call multiple
// times; only the first call has any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNXClassifier runs a 3-class sentiment model locally through ONNX
// Runtime. Loaded once at startup and reused for every review.
type ONNXClassifier struct {
	session      *ort.DynamicAdvancedSession
	inputNames   []string
	usesTypeIDs  bool
	tok          *tokenizer
}

// NewONNX loads the model and its WordPiece vocabulary. The ONNX Runtime
// shared library is expected next to the model file.
func NewONNX(modelPath, vocabPath string) (*ONNXClassifier, error) {
	libPath := filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("classify: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("classify: failed to read model info: %w", err)
	}

	inputNames, usesTypeIDs, err := validateInputs(inputs)
	if err != nil {
		return nil, err
	}

	// Expect a single [batch, classes] logits tensor.
	if len(outputs) == 0 {
		return nil, fmt.Errorf("classify: model has no outputs")
	}
	dims := outputs[0].Dimensions
	if len(dims) != 2 || dims[1] != int64(len(classLabels)) {
		return nil, fmt.Errorf("classify: expected [batch, %d] output, got %v", len(classLabels), dims)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("classify: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(4)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		inputNames,
		[]string{outputs[0].Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("classify: failed to create session: %w", err)
	}

	tok, err := newTokenizer(vocabPath)
	if err != nil {
		session.Destroy()
		return nil, fmt.Errorf("classify: %w", err)
	}

	return &ONNXClassifier{
		session:     session,
		inputNames:  inputNames,
		usesTypeIDs: usesTypeIDs,
		tok:         tok,
	}, nil
}

// validateInputs checks for the expected transformer inputs. token_type_ids
// is optional; distilled sentiment models often omit it.
func validateInputs(inputs []ort.InputOutputInfo) (names []string, usesTypeIDs bool, err error) {
	nameSet := make(map[string]bool, len(inputs))
	for _, inp := range inputs {
		nameSet[inp.Name] = true
	}
	for _, required := range []string{"input_ids", "attention_mask"} {
		if !nameSet[required] {
			return nil, false, fmt.Errorf("classify: model missing required input %q", required)
		}
	}
	names = []string{"input_ids", "attention_mask"}
	if nameSet["token_type_ids"] {
		names = append(names, "token_type_ids")
		usesTypeIDs = true
	}
	return names, usesTypeIDs, nil
}

// Classify tokenizes (truncating long text to the model's span) and runs
// inference. Every internal failure is logged and mapped to SafeDefault so
// a single bad review cannot abort the batch.
func (c *ONNXClassifier) Classify(text string) Result {
	ids, mask := c.tok.tokenize(text)

	logits, err := c.infer(ids, mask)
	if err != nil {
		log.Printf("Context classifier error, using safe default: %v", err)
		return SafeDefault()
	}
	return resultFromLogits(logits)
}

func (c *ONNXClassifier) infer(inputIDs, attentionMask []int64) ([]float32, error) {
	seqLen := int64(len(inputIDs))
	shape := ort.NewShape(1, seqLen)

	tIDs, err := ort.NewTensor(shape, inputIDs)
	if err != nil {
		return nil, fmt.Errorf("creating input_ids tensor: %w", err)
	}
	defer tIDs.Destroy()

	tMask, err := ort.NewTensor(shape, attentionMask)
	if err != nil {
		return nil, fmt.Errorf("creating attention_mask tensor: %w", err)
	}
	defer tMask.Destroy()

	inputs := []ort.Value{tIDs, tMask}
	if c.usesTypeIDs {
		tTypes, err := ort.NewTensor(shape, make([]int64, seqLen))
		if err != nil {
			return nil, fmt.Errorf("creating token_type_ids tensor: %w", err)
		}
		defer tTypes.Destroy()
		inputs = append(inputs, tTypes)
	}

	outShape := ort.NewShape(1, int64(len(classLabels)))
	tOut, err := ort.NewEmptyTensor[float32](outShape)
	if err != nil {
		return nil, fmt.Errorf("creating output tensor: %w", err)
	}
	defer tOut.Destroy()

	if err := c.session.Run(inputs, []ort.Value{tOut}); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	src := tOut.GetData()
	logits := make([]float32, len(src))
	copy(logits, src)
	return logits, nil
}

// Close releases ONNX Runtime resources.
func (c *ONNXClassifier) Close() error {
	if c.session != nil {
		return c.session.Destroy()
	}
	return nil
}
