// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package convert parses loosely typed query values where a bad value should
// silently fall back instead of failing the request.
package convert

import (
	"strconv"
	"strings"
)

// ToIntD parses str as a base-10 int, or returns def when str is blank or
// not a number.
func ToIntD(str string, def int) int {
	value, err := strconv.Atoi(strings.TrimSpace(str))
	if err != nil {
		return def
	}
	return value
}
