// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

// Package behavior implements the behavioral analytics modules: the digital
// fatigue index, context-switch pattern analysis, procrastination pattern
// mining, and mood-productivity causality.
//
// All analyzers are pure functions over event, session, and mood slices.
// They take the reference time as a parameter so tests are deterministic,
// and they degrade gracefully: too little data yields a neutral result with
// the has-sufficient-data flags cleared, never an error.
package behavior
