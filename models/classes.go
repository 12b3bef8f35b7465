// Package models - Label vocabularies and the model registry.
package models

import (
	"bufio"
	"os"
	"strings"

	"github.com/nvr-ai/go-proximity/common"
	"github.com/pkg/errors"
)

// YOLOClasses is the 80 COCO classes in the zero-based order YOLO models
// index into (no background class).
var YOLOClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat", "dog",
	"horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack", "umbrella",
	"handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball", "kite",
	"baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket", "bottle",
	"wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple", "sandwich", "orange",
	"broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair", "couch", "potted plant",
	"bed", "dining table", "toilet", "tv", "laptop", "mouse", "remote", "keyboard", "cell phone",
	"microwave", "oven", "toaster", "sink", "refrigerator", "book", "clock", "vase", "scissors",
	"teddy bear", "hair drier", "toothbrush",
}

// LoadLabels reads a label file with one class name per line.
//
// Lines are trimmed and trailing blank lines are dropped; blank lines in the
// middle are kept so that ids stay aligned with the model's output columns.
//
// Arguments:
//   - path: The label file.
//
// Returns:
//   - []string: The labels in class id order.
//   - error: An error if the file cannot be read or holds no labels.
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open labels %s", path)
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		labels = append(labels, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read labels %s", path)
	}

	for len(labels) > 0 && labels[len(labels)-1] == "" {
		labels = labels[:len(labels)-1]
	}
	if len(labels) == 0 {
		return nil, errors.Wrapf(common.ErrEmptyInput, "no labels in %s", path)
	}

	return labels, nil
}
