package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/pkg/jsonmessage"
)

// drain consumes a docker progress stream, surfacing the first error the
// daemon reports.
func (engine dockerEngine) drain(stream io.Reader) error {
	decoder := json.NewDecoder(stream)
	for {
		var message jsonmessage.JSONMessage
		if err := decoder.Decode(&message); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if message.Error != nil {
			return message.Error
		}
		if message.Stream != "" {
			engine.logger.Debug(strings.TrimRight(message.Stream, "\n"))
		}
	}
}

var pushedStatuses = []string{"Mounted from", "Pushed", "Layer already exists"}

// watchPush consumes a push progress stream. A layer counts as pushed when
// its status carries one of the final phrases or its progress counter
// reached the total.
func (engine dockerEngine) watchPush(stream io.Reader) error {
	decoder := json.NewDecoder(stream)
	for {
		var message jsonmessage.JSONMessage
		if err := decoder.Decode(&message); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if message.Error != nil {
			return message.Error
		}
		if message.ID != "" && layerPushed(message) {
			engine.logger.Debug(fmt.Sprintf("%v: %v", message.ID, message.Status))
		}
	}
}

func layerPushed(message jsonmessage.JSONMessage) bool {
	for _, status := range pushedStatuses {
		if strings.HasPrefix(message.Status, status) {
			return true
		}
	}
	progress := message.Progress
	return progress != nil && progress.Current >= progress.Total
}
