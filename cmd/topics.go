package cmd

import (
	"github.com/bdebruin1014/proforma/docs"
	"github.com/posener/complete/v2"
)

// topics predicts the documentation topics.
var topics = complete.PredictFunc(func(prefix string) []string {
	list, err := docs.GetAllTopics()
	if err != nil {
		return nil
	}
	return list
})
