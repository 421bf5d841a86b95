// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package spsa

import "errors"

// Sentinel errors returned by Arrive and NewRun. All of these leave the
// receiver's state byte-for-byte unchanged; none is ever returned after a
// partial mutation.
var (
	// ErrSignatureMismatch is returned by Arrive when the report's signature
	// does not match the run's current signature.
	ErrSignatureMismatch = errors.New("spsa: signature mismatch")

	// ErrEmptyReport is returned by Arrive when num_games/2 <= 0.
	ErrEmptyReport = errors.New("spsa: empty report")

	// ErrMalformedFlips is returned by Arrive (via UnpackFlips) when the
	// packed flip payload cannot possibly encode the parameter count.
	ErrMalformedFlips = errors.New("spsa: malformed flip payload")

	// ErrBoundsViolation is returned by NewRun when a parameter spec has
	// Min > Max. The run is refused; no Run value is constructed.
	ErrBoundsViolation = errors.New("spsa: parameter bounds violation")
)
