package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/imagetree/imagetree/pkg/builder/application/model"
)

// Render writes build and push records as an aligned table.
func Render(out io.Writer, records []model.BuildRecord) error {
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(writer, "repository\ttag\tseconds\ttype"); err != nil {
		return err
	}
	for _, record := range records {
		_, err := fmt.Fprintf(writer, "%v\t%v\t%.2f\t%v\n", record.Repository, record.Tag, record.Seconds, record.Type)
		if err != nil {
			return err
		}
	}
	return writer.Flush()
}

// RenderImages writes local images as an aligned table.
func RenderImages(out io.Writer, images []model.LocalImage) error {
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(writer, "repository\ttag\timage id\tcreated\tsize"); err != nil {
		return err
	}
	for _, image := range images {
		_, err := fmt.Fprintf(writer, "%v\t%v\t%v\t%v\t%v\n",
			image.Repository, image.Tag, image.ID, image.Created.Format(time.DateTime), formatSize(image.Size))
		if err != nil {
			return err
		}
	}
	return writer.Flush()
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%dB", size)
	}
	div, exp := int64(unit), 0
	for scaled := size / unit; scaled >= unit; scaled /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(size)/float64(div), "KMGTPE"[exp])
}
