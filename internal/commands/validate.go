// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	macAddressPattern  = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}$`)
	packageNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z][A-Za-z0-9_]*)+$`)
)

// ValidateValue checks value against the parameter's declared type and
// custom validator. It returns a human-readable reason on failure.
func ValidateValue(param CommandParameter, value string) (string, bool) {
	if reason, ok := validateType(param, value); !ok {
		return reason, false
	}
	if param.Validator != nil && !param.Validator(value) {
		return "custom validation failed", false
	}
	return "", true
}

func validateType(param CommandParameter, value string) (string, bool) {
	switch param.Type {
	case TypeInteger:
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return "expected an integer", false
		}
	case TypeBoolean:
		switch strings.ToLower(value) {
		case "true", "false", "1", "0", "yes", "no":
		default:
			return "expected a boolean (true/false/yes/no/1/0)", false
		}
	case TypeEnum:
		if len(param.Options) > 0 && !contains(param.Options, value) {
			return "expected one of: " + strings.Join(param.Options, ", "), false
		}
	case TypeIPAddress:
		if !isIPv4(value) {
			return "expected an IPv4 address", false
		}
	case TypeMACAddress:
		if !macAddressPattern.MatchString(value) {
			return "expected a MAC address", false
		}
	case TypeURL:
		if !isURL(value) {
			return "expected a URL", false
		}
	case TypePackageName:
		if !packageNamePattern.MatchString(value) {
			return "expected a package name (e.g. com.example.app)", false
		}
	case TypePath:
		if strings.Contains(value, "..") || strings.Contains(value, "//") {
			return "path must not contain '..' or '//'", false
		}
	}
	return "", true
}

// ParseBool interprets a BOOLEAN parameter value. Unrecognised values are
// false.
func ParseBool(value string) bool {
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func isIPv4(value string) bool {
	parts := strings.Split(value, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		if part == "" || strings.IndexFunc(part, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
			return false
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	return true
}

func isURL(value string) bool {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" {
		return false
	}
	return u.Host != "" || u.Opaque != "" || u.Path != ""
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
