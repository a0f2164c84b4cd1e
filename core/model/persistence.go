package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/goknn/pkg/errors"
	"github.com/klauspost/compress/zstd"
)

// SaveModel はモデルを zstd 圧縮した gob としてファイルに保存する
//
// 使用例:
//
//	err := model.SaveModel(snapshot, "knn.gob.zst")
func SaveModel(model interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer file.Close()

	if err := SaveModelToWriter(model, file); err != nil {
		return err
	}
	return file.Close()
}

// LoadModel はファイルからモデルを読み込む
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	return LoadModelFromReader(model, file)
}

// SaveModelToWriter はモデルをio.Writerに保存する
func SaveModelToWriter(model interface{}, w io.Writer) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return errors.Wrap(err, "failed to create zstd writer")
	}
	if err := gob.NewEncoder(zw).Encode(model); err != nil {
		zw.Close()
		return errors.Wrap(err, "failed to encode model")
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "failed to flush zstd stream")
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む
func LoadModelFromReader(model interface{}, r io.Reader) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return errors.Wrap(err, "failed to create zstd reader")
	}
	defer zr.Close()

	if err := gob.NewDecoder(zr).Decode(model); err != nil {
		return errors.NewModelError("LoadModel", "failed to decode model", err)
	}
	return nil
}
