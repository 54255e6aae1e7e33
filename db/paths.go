package db

import (
	"path"
)

const (
	dataDirName          = "data"
	clusterConfigDirName = "cluster-config"
)

// Name of the cluster's config file
func MakeConfigFilePath(slurmuseDir, clusterName string) string {
	return path.Join(
		slurmuseDir,
		clusterConfigDirName,
		clusterName+"-config.json",
	)
}

// Name of the cluster's data directory
func MakeClusterDataPath(slurmuseDir, clusterName string) string {
	return path.Join(slurmuseDir, dataDirName, clusterName)
}

func MakeClusterDataDirPath(slurmuseDir string) string {
	return path.Join(slurmuseDir, dataDirName)
}

func MakeClusterConfigDirPath(slurmuseDir string) string {
	return path.Join(slurmuseDir, clusterConfigDirName)
}
