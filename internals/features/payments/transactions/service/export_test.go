package service

import dto "github.com/prometheus/client_model/go"

func PollPropagationFailureCount(provider string) float64 {
	m := &dto.Metric{}
	if err := pollPropagationFailures.WithLabelValues(provider).Write(m); err != nil {
		return -1
	}
	return m.GetCounter().GetValue()
}
