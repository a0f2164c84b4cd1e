package metrics

import (
	"github.com/YuminosukeSato/goknn/pkg/errors"
)

// Accuracy は正解率（予測が一致したサンプルの割合）を計算する
func Accuracy(yTrue, yPred []int) (float64, error) {
	n := len(yTrue)
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty label sequence")
	}
	if len(yPred) != n {
		return 0, errors.NewDimensionError("Accuracy", n, len(yPred), 0)
	}

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ConfusionMatrix は混同行列。Labels は yTrue, yPred の順で最初に現れた順序。
// Counts[i][j] は真のラベル Labels[i] を Labels[j] と予測した件数。
type ConfusionMatrix struct {
	Labels []int
	Counts [][]int
}

// NewConfusionMatrix は混同行列を作成する
func NewConfusionMatrix(yTrue, yPred []int) (*ConfusionMatrix, error) {
	if len(yTrue) == 0 {
		return nil, errors.NewValueError("ConfusionMatrix", "empty label sequence")
	}
	if len(yPred) != len(yTrue) {
		return nil, errors.NewDimensionError("ConfusionMatrix", len(yTrue), len(yPred), 0)
	}

	index := make(map[int]int)
	var labels []int
	for _, seq := range [][]int{yTrue, yPred} {
		for _, l := range seq {
			if _, ok := index[l]; !ok {
				index[l] = len(labels)
				labels = append(labels, l)
			}
		}
	}

	counts := make([][]int, len(labels))
	for i := range counts {
		counts[i] = make([]int, len(labels))
	}
	for i := range yTrue {
		counts[index[yTrue[i]]][index[yPred[i]]]++
	}
	return &ConfusionMatrix{Labels: labels, Counts: counts}, nil
}

// Count は真のラベル trueLabel を predLabel と予測した件数を返す
func (cm *ConfusionMatrix) Count(trueLabel, predLabel int) int {
	ti, tok := cm.position(trueLabel)
	pi, pok := cm.position(predLabel)
	if !tok || !pok {
		return 0
	}
	return cm.Counts[ti][pi]
}

func (cm *ConfusionMatrix) position(label int) (int, bool) {
	for i, l := range cm.Labels {
		if l == label {
			return i, true
		}
	}
	return 0, false
}
