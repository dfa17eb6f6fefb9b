package repository

import (
	"HistoryDB/internal/domain"
	"fmt"
)

func checkInterval(ssid string, start, end int64, quark int, backendStart int64) error {
	if quark < 0 || quark > domain.MaxQuark {
		return fmt.Errorf("%w: %s quark: %d", domain.ErrInvalidQuark, ssid, quark)
	}
	if start > end || start < backendStart {
		return fmt.Errorf("%w: %s interval start: %d, interval end: %d, backend start: %d",
			domain.ErrTimeRange, ssid, start, end, backendStart)
	}
	return nil
}

func checkValidTime(ssid string, t, start, end int64) error {
	if t < start || t > end {
		return fmt.Errorf("%w: %s time: %d, start: %d, end: %d", domain.ErrTimeRange, ssid, t, start, end)
	}
	return nil
}

func checkFinishTime(ssid string, endTime, latest int64) error {
	if endTime < latest {
		return fmt.Errorf("%w: %s cannot finish at %d, intervals end at %d", domain.ErrTimeRange, ssid, endTime, latest)
	}
	return nil
}

func attributeNotFound(ssid string, quark int, t int64) error {
	return fmt.Errorf("%w: %s quark: %d, time: %d", domain.ErrAttributeNotFound, ssid, quark, t)
}
