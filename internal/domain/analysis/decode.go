package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/okian/paddock/internal/domain/model"
	"github.com/okian/paddock/internal/domain/recovery"
)

// DecodeText extracts a Result from generated analysis text, which may be
// fenced or wrapped in prose.
func DecodeText(r *recovery.Recoverer, text string) (model.Result, error) {
	out, err := r.RecoverObject(text)
	if err != nil {
		return model.Result{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	var res model.Result
	if err := json.Unmarshal([]byte(out.Value.Raw), &res); err != nil {
		return model.Result{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	for i := range res.Predictions {
		if res.Predictions[i].StarRating < 1 {
			res.Predictions[i].StarRating = 1
		}
		if res.Predictions[i].StarRating > 5 {
			res.Predictions[i].StarRating = 5
		}
	}
	return res, nil
}
