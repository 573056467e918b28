// cmd/client/cmd/record/add.go
package record

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"lifelog/internal/domain/record"
	"lifelog/internal/utils/datauri"
)

var (
	latitude      float64
	longitude     float64
	address       string
	imagePaths    []string
	videoPaths    []string
	audioPath     string
	audioDuration float64
)

var AddCmd = &cobra.Command{
	Use:   "add [текст]",
	Short: "Создать запись",
	Long: `Создание записи журнала.

Текст берется из аргументов. К записи можно приложить фото (--image),
видео (--video), аудио (--audio) и геопозицию (--lat, --lon).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := writableApp(cmd)
		if err != nil {
			return err
		}

		content := strings.Join(args, " ")

		var location *record.Location
		if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
			location = &record.Location{
				Latitude:  latitude,
				Longitude: longitude,
				Address:   address,
			}
		}

		var audio *record.Audio
		if audioPath != "" {
			data, mime, err := readFile(audioPath)
			if err != nil {
				return err
			}
			audio = &record.Audio{
				Data:     datauri.Encode(data, mime),
				Duration: audioDuration,
				Format:   mime,
			}
		}

		media := make([]record.MediaData, 0, len(imagePaths)+len(videoPaths))
		for _, path := range imagePaths {
			m, err := loadMedia(path, record.MediaTypeImage)
			if err != nil {
				return err
			}
			media = append(media, m)
		}
		for _, path := range videoPaths {
			m, err := loadMedia(path, record.MediaTypeVideo)
			if err != nil {
				return err
			}
			media = append(media, m)
		}

		if content == "" && audio == nil && len(media) == 0 {
			return fmt.Errorf("пустая запись: укажите текст, аудио или медиа")
		}

		rec, err := app.Records().AddRecord(cmd.Context(), content, location, audio, media)
		if err != nil {
			return fmt.Errorf("ошибка создания записи: %w", err)
		}

		Done("Запись создана: %s", rec.ID)
		return nil
	},
}

func readFile(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("ошибка чтения файла %s: %w", path, err)
	}
	return data, mimetype.Detect(data).String(), nil
}

func loadMedia(path string, typ record.MediaType) (record.MediaData, error) {
	data, mime, err := readFile(path)
	if err != nil {
		return record.MediaData{}, err
	}

	m := record.MediaData{
		Type:     typ,
		Data:     datauri.Encode(data, mime),
		MimeType: mime,
	}

	// Размеры известны только для форматов, которые умеет stdlib image
	if typ == record.MediaTypeImage {
		if conf, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			m.Width, m.Height = conf.Width, conf.Height
		}
	}
	return m, nil
}

func init() {
	AddCmd.Flags().Float64Var(&latitude, "lat", 0, "широта")
	AddCmd.Flags().Float64Var(&longitude, "lon", 0, "долгота")
	AddCmd.Flags().StringVar(&address, "address", "", "адрес места")
	AddCmd.Flags().StringSliceVar(&imagePaths, "image", nil, "путь к фото, можно повторять")
	AddCmd.Flags().StringSliceVar(&videoPaths, "video", nil, "путь к видео, можно повторять")
	AddCmd.Flags().StringVar(&audioPath, "audio", "", "путь к аудиофайлу")
	AddCmd.Flags().Float64Var(&audioDuration, "audio-duration", 0, "длительность аудио в секундах")
}
