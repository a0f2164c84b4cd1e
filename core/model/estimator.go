package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer はスコアを計算できるモデルのインターフェース
type Scorer interface {
	// Score は分類器なら正解率を返す
	Score(X, y mat.Matrix) (float64, error)
}

// ParameterGetter はハイパーパラメータを公開するモデルのインターフェース
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// Classifier は分類モデルの組み合わせインターフェース。
// 設定は構築時に固定される（変更は knn.Classifier.WithParams でコピーを作る）。
type Classifier interface {
	Fitter
	Predictor
	Scorer
	ParameterGetter
}
