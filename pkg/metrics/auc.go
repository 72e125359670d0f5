// Package metrics scores classifier output against true labels.
package metrics

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/hed1ad/kmerml/pkg/models"
)

// ErrSingleClass is returned when the labels contain only positives or only negatives.
var ErrSingleClass = errors.New("roc is undefined for a single class")

// ROC returns the false and true positive rates of scores at every distinct
// cutoff, in increasing order. Labels > 0.5 are positives.
func ROC(labels, scores []float64) (fpr, tpr []float64, err error) {
	if len(labels) != len(scores) {
		return nil, nil, fmt.Errorf("got %d labels but %d scores", len(labels), len(scores))
	}
	if len(labels) == 0 {
		return nil, nil, errors.New("no scores")
	}

	y := make([]float64, len(scores))
	copy(y, scores)
	classes := make([]bool, len(labels))

	var pos int
	for i, l := range labels {
		classes[i] = models.IsPositive(l)
		if classes[i] {
			pos++
		}
	}
	if pos == 0 || pos == len(labels) {
		return nil, nil, ErrSingleClass
	}

	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ = stat.ROC(nil, y, classes, nil)

	return fpr, tpr, nil
}

// AUC returns the area under the ROC curve of scores. 1 means every positive
// outranks every negative, 0.5 is chance.
func AUC(labels, scores []float64) (float64, error) {
	fpr, tpr, err := ROC(labels, scores)
	if err != nil {
		return 0, err
	}

	return integrate.Trapezoidal(fpr, tpr), nil
}
