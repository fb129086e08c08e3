// Package parser extracts structured daily schedules from rendered calendar text.
//
// The input is the visible text of a schedule page (one line per rendered row). Parsing
// runs in fixed stages: every line is classified, the line sequence is cut into day blocks
// at day headers, each day block is cut into event blocks at time-range headers, and an
// ordered chain of field rules turns each event block into an event.Event. Day headers
// without a year are resolved with event.InferYear.
//
// Extraction is best effort and deterministic: the same text always yields the same days,
// and every recognized time header yields exactly one event, however little of it could
// be filled in.
package parser
