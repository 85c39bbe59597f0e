// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package v1alpha1

const (
	// SnapshotFileSuffix is appended to the release name to form the BOM snapshot file name.
	SnapshotFileSuffix = ".json"
	// SnapshotBackupTimeFormat is the timestamp layout used for snapshot backups.
	SnapshotBackupTimeFormat = "20060102-150405"
	// HistoryFileName is the default file name of the saved build history.
	HistoryFileName = "builds.json"
	// PLDMMarker is the literal that locates the embedded PLDM descriptor header.
	PLDMMarker = "pldm.xml"
	// TarBlockSize is the fixed block size of the tar framing around PLDM members.
	TarBlockSize = 512
	// DefaultOSSubVersion is the sub-version assigned to base releases.
	DefaultOSSubVersion = "0"
)
