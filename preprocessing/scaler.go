// Package preprocessing は距離計算の前に特徴量のスケールを揃える変換を提供する。
//
// kNN はユークリッド距離をそのまま使うため、値域の大きい特徴量が距離を支配する。
// スケーラーは学習データで統計量を求め、同じ変換を参照集合とクエリの両方に適用する。
package preprocessing

import (
	"fmt"
	"math"
	"strings"

	"github.com/YuminosukeSato/goknn/core/model"
	"github.com/YuminosukeSato/goknn/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// 標準偏差・値域がこれ未満の特徴量は定数とみなし、スケールを1にする
const constantTol = 1e-8

// Scaler is a fitted per-feature transform over row vectors.
type Scaler interface {
	Fit(rows [][]float64) error
	Transform(rows [][]float64) ([][]float64, error)
	FitTransform(rows [][]float64) ([][]float64, error)
	InverseTransform(rows [][]float64) ([][]float64, error)
}

// New returns the scaler named by kind: "standard" or "minmax".
// An empty kind or "none" returns nil and no error.
func New(kind string) (Scaler, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "none":
		return nil, nil
	case "standard":
		return NewStandardScalerDefault(), nil
	case "minmax":
		return NewMinMaxScalerDefault(), nil
	default:
		return nil, errors.NewValidationError("scaler", "must be one of none, standard, minmax", kind)
	}
}

// column extracts feature j from rows. 全行の長さは checkRows で検証済みであること。
func column(rows [][]float64, j int) []float64 {
	col := make([]float64, len(rows))
	for i, r := range rows {
		col[i] = r[j]
	}
	return col
}

// checkRows returns the common row length.
func checkRows(op string, rows [][]float64) (int, error) {
	if len(rows) == 0 {
		return 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	c := len(rows[0])
	if c == 0 {
		return 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	for _, r := range rows[1:] {
		if len(r) != c {
			return 0, errors.NewDimensionError(op, c, len(r), 1)
		}
	}
	return c, nil
}

// apply maps f over every element of rows into a new slice. 入力は変更しない。
func apply(op string, nFeatures int, rows [][]float64, f func(j int, v float64) float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		if len(r) != nFeatures {
			return nil, errors.NewDimensionError(op, nFeatures, len(r), 1)
		}
		out[i] = make([]float64, nFeatures)
		for j, v := range r {
			out[i][j] = f(j, v)
		}
	}
	return out, nil
}

// StandardScaler はデータを平均0、標準偏差1に変換する
type StandardScaler struct {
	model.BaseEstimator

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の母標準偏差
	Scale []float64

	// NFeatures は特徴量の数
	NFeatures int

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	train, err := scaler.FitTransform(trainRows)
//	test, err := scaler.Transform(testRows)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit は訓練データから平均と標準偏差を計算する
func (s *StandardScaler) Fit(rows [][]float64) error {
	c, err := checkRows("StandardScaler.Fit", rows)
	if err != nil {
		return err
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		mean, std := stat.PopMeanStdDev(column(rows, j), nil)
		if s.WithMean {
			s.Mean[j] = mean
		}
		s.Scale[j] = 1.0
		if s.WithStd && std >= constantTol {
			s.Scale[j] = std
		}
	}

	s.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(rows [][]float64) ([][]float64, error) {
	if err := s.CheckFitted("StandardScaler", "Transform"); err != nil {
		return nil, err
	}
	return apply("StandardScaler.Transform", s.NFeatures, rows, func(j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	})
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(rows [][]float64) ([][]float64, error) {
	if err := s.Fit(rows); err != nil {
		return nil, err
	}
	return s.Transform(rows)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(rows [][]float64) ([][]float64, error) {
	if err := s.CheckFitted("StandardScaler", "InverseTransform"); err != nil {
		return nil, err
	}
	return apply("StandardScaler.InverseTransform", s.NFeatures, rows, func(j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	})
}

// GetParams はスケーラーのパラメータを取得する
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}

// MinMaxScaler はデータを指定した範囲（デフォルト[0,1]）にスケーリングする
type MinMaxScaler struct {
	model.BaseEstimator

	// DataMin は学習データの最小値
	DataMin []float64

	// DataMax は学習データの最大値
	DataMax []float64

	// Scale は各特徴量の値域 (max - min)。定数特徴量では1
	Scale []float64

	// NFeatures は特徴量の数
	NFeatures int

	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		FeatureRange: featureRange,
	}
}

// NewMinMaxScalerDefault はデフォルト設定([0,1]範囲)でMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// Fit は訓練データから最小値・最大値を計算する
func (m *MinMaxScaler) Fit(rows [][]float64) error {
	if m.FeatureRange[0] >= m.FeatureRange[1] {
		return errors.NewValidationError("feature_range", "minimum must be smaller than maximum", m.FeatureRange)
	}
	c, err := checkRows("MinMaxScaler.Fit", rows)
	if err != nil {
		return err
	}

	m.NFeatures = c
	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		col := column(rows, j)
		m.DataMin[j] = floats.Min(col)
		m.DataMax[j] = floats.Max(col)

		m.Scale[j] = m.DataMax[j] - m.DataMin[j]
		if math.Abs(m.Scale[j]) < constantTol {
			m.Scale[j] = 1.0
		}
	}

	m.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータをスケーリングする
func (m *MinMaxScaler) Transform(rows [][]float64) ([][]float64, error) {
	if err := m.CheckFitted("MinMaxScaler", "Transform"); err != nil {
		return nil, err
	}
	width := m.FeatureRange[1] - m.FeatureRange[0]
	return apply("MinMaxScaler.Transform", m.NFeatures, rows, func(j int, v float64) float64 {
		return (v-m.DataMin[j])/m.Scale[j]*width + m.FeatureRange[0]
	})
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(rows [][]float64) ([][]float64, error) {
	if err := m.Fit(rows); err != nil {
		return nil, err
	}
	return m.Transform(rows)
}

// InverseTransform はスケーリングされたデータを元の範囲に戻す
func (m *MinMaxScaler) InverseTransform(rows [][]float64) ([][]float64, error) {
	if err := m.CheckFitted("MinMaxScaler", "InverseTransform"); err != nil {
		return nil, err
	}
	width := m.FeatureRange[1] - m.FeatureRange[0]
	return apply("MinMaxScaler.InverseTransform", m.NFeatures, rows, func(j int, v float64) float64 {
		return (v-m.FeatureRange[0])/width*m.Scale[j] + m.DataMin[j]
	})
}

// GetParams はスケーラーのパラメータを取得する
func (m *MinMaxScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"feature_range": m.FeatureRange,
	}
}

func (m *MinMaxScaler) String() string {
	if !m.IsFitted() {
		return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])",
			m.FeatureRange[0], m.FeatureRange[1])
	}
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], m.NFeatures)
}
