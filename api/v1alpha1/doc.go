// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package v1alpha1 contains the serialized data model of bomcheck: the release
// BOM snapshot, package type definitions and the saved build history.
package v1alpha1
