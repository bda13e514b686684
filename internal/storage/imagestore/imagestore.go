// Пакет imagestore — хранение загруженных изображений на локальном диске.
// Валидация типа и расширения, запись целиком под uuid-именем,
// листинг директории и построение публичных URL.
package imagestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Ошибки валидации и лимитов.
var (
	// ErrInvalidType — Content-Type вне допустимого набора.
	ErrInvalidType = errors.New("недопустимый тип файла")
	// ErrInvalidExtension — расширение файла вне допустимого набора.
	ErrInvalidExtension = errors.New("недопустимое расширение файла")
	// ErrTooLarge — размер файла превышает лимит.
	ErrTooLarge = errors.New("файл превышает максимальный размер")
)

// allowedMIMETypes — допустимые заявленные Content-Type загрузки.
var allowedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// allowedExtensions — допустимые расширения (в нижнем регистре).
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ImageStore — хранилище изображений в одной директории.
type ImageStore struct {
	dir     string
	baseURL string
	maxSize int64
}

// SavedImage — результат сохранения изображения.
type SavedImage struct {
	// Filename — имя файла в хранилище (uuid + расширение)
	Filename string
	// URL — публичный адрес файла
	URL string
	// Size — записанный размер в байтах
	Size int64
}

// ImageInfo — элемент листинга хранилища.
type ImageInfo struct {
	Filename string
	URL      string
	Size     int64
}

// New создаёт ImageStore и директорию хранения, если её нет.
// baseURL — публичный базовый адрес без trailing slash.
func New(dir, baseURL string, maxSize int64) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию загрузок %s: %w", dir, err)
	}

	return &ImageStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSize: maxSize,
	}, nil
}

// Validate проверяет заявленный Content-Type и расширение файла.
// Порядок проверок фиксирован: сначала тип, затем расширение.
func (s *ImageStore) Validate(contentType, filename string) error {
	if !allowedMIMETypes[contentType] {
		return fmt.Errorf("%w: %s", ErrInvalidType, contentType)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: %s", ErrInvalidExtension, ext)
	}
	return nil
}

// Save проверяет размер и записывает содержимое файла целиком.
// Имя в хранилище: uuid + расширение оригинала в нижнем регистре.
// Файлы иммутабельны: перезапись исключена уникальностью uuid.
func (s *ImageStore) Save(content []byte, originalFilename string) (*SavedImage, error) {
	if int64(len(content)) > s.maxSize {
		return nil, fmt.Errorf("%w: %d байт при лимите %d", ErrTooLarge, len(content), s.maxSize)
	}

	ext := strings.ToLower(filepath.Ext(originalFilename))
	filename := uuid.New().String() + ext

	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, content, 0o640); err != nil {
		return nil, fmt.Errorf("ошибка записи файла %s: %w", filename, err)
	}

	return &SavedImage{
		Filename: filename,
		URL:      s.URL(filename),
		Size:     int64(len(content)),
	}, nil
}

// List возвращает обычные файлы в директории хранения (без рекурсии).
// Если директория отсутствует — возвращает пустой список.
func (s *ImageStore) List() ([]ImageInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ImageInfo{}, nil
		}
		return nil, fmt.Errorf("ошибка чтения директории загрузок: %w", err)
	}

	images := make([]ImageInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("ошибка получения информации о файле %s: %w", entry.Name(), err)
		}
		images = append(images, ImageInfo{
			Filename: entry.Name(),
			URL:      s.URL(entry.Name()),
			Size:     info.Size(),
		})
	}
	return images, nil
}

// URL возвращает публичный адрес файла в хранилище.
func (s *ImageStore) URL(filename string) string {
	return s.baseURL + "/uploads/" + filename
}

// MaxSize возвращает лимит размера файла в байтах.
func (s *ImageStore) MaxSize() int64 {
	return s.maxSize
}

// Dir возвращает директорию хранения.
func (s *ImageStore) Dir() string {
	return s.dir
}
