package classifier

import (
	"encoding/json"
	"os"
)

// EpochStats is the training loss and accuracy after one epoch.
type EpochStats struct {
	Epoch    int     `json:"epoch"`
	Loss     float64 `json:"loss"`
	Accuracy float64 `json:"accuracy"`
}

// History records every completed epoch in order.
type History struct {
	Epochs []EpochStats
}

// Last returns the most recent epoch, or false if none completed.
func (h History) Last() (EpochStats, bool) {
	if len(h.Epochs) == 0 {
		return EpochStats{}, false
	}
	return h.Epochs[len(h.Epochs)-1], true
}

type historyFile struct {
	Loss     []float64 `json:"loss"`
	Accuracy []float64 `json:"accuracy"`
}

// Save writes the history as {"loss": [...], "accuracy": [...]}.
func (h History) Save(path string) error {
	hf := historyFile{
		Loss:     make([]float64, len(h.Epochs)),
		Accuracy: make([]float64, len(h.Epochs)),
	}
	for i, e := range h.Epochs {
		hf.Loss[i] = e.Loss
		hf.Accuracy[i] = e.Accuracy
	}
	data, err := json.MarshalIndent(hf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadHistory reads a file written by History.Save.
func LoadHistory(path string) (History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return History{}, err
	}
	var hf historyFile
	if err := json.Unmarshal(data, &hf); err != nil {
		return History{}, err
	}
	h := History{Epochs: make([]EpochStats, len(hf.Loss))}
	for i := range hf.Loss {
		h.Epochs[i] = EpochStats{Epoch: i + 1, Loss: hf.Loss[i]}
		if i < len(hf.Accuracy) {
			h.Epochs[i].Accuracy = hf.Accuracy[i]
		}
	}
	return h, nil
}
