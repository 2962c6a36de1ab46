package diag

import (
	hdf5 "github.com/jmbenlloch/go-hdf5"
)

type EventInfoHDF5 struct {
	evt_number int32
	timestamp  uint64
}

type RunInfoHDF5 struct {
	run_number int32
}

func openFile(fname string) (*hdf5.File, error) {
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, &ErrOpenFile{Filename: fname, Err: err}
	}
	return f, nil
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func create3dArray(group *hdf5.Group, name string, nChannels int, nSamples int, compressionLevel int) (*hdf5.Dataset, error) {
	dims := []uint{0, 0, 0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims), uint(nChannels), uint(nSamples)}
	chunks := []uint{1, uint(nChannels), uint(nSamples)}

	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, err
	}

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, err
	}
	plist.SetChunk(chunks)
	plist.SetDeflate(compressionLevel)

	return group.CreateDatasetWith(name, hdf5.T_NATIVE_INT16, fileSpace, plist)
}

func createTable(group *hdf5.Group, name string, datatype interface{}, compressionLevel int) (*hdf5.Dataset, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}

	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, err
	}

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, err
	}
	plist.SetChunk([]uint{32768})
	plist.SetDeflate(compressionLevel)

	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, err
	}

	return group.CreateDatasetWith(name, dtype, fileSpace, plist)
}

func writeEntryToTable[T any](dataset *hdf5.Dataset, data T, evtCounter int) error {
	array := []T{data}
	length := uint(len(array))
	dataspace, err := hdf5.CreateSimpleDataspace([]uint{length}, nil)
	if err != nil {
		return err
	}
	defer dataspace.Close()

	// extend
	eventsInFile := uint(evtCounter)
	dataset.Resize([]uint{eventsInFile + length})
	filespace := dataset.Space()
	defer filespace.Close()

	filespace.SelectHyperslab([]uint{eventsInFile}, nil, []uint{length}, nil)
	return dataset.WriteSubset(&array, dataspace, filespace)
}

func write3dArray(dataset *hdf5.Dataset, data *[]int16, evtCounter int, nChannels int, nSamples int) error {
	// extend
	newsize := []uint{uint(evtCounter) + 1, uint(nChannels), uint(nSamples)}
	dataset.Resize(newsize)
	filespace := dataset.Space()
	defer filespace.Close()

	start := []uint{uint(evtCounter), 0, 0}
	count := []uint{1, uint(nChannels), uint(nSamples)}
	filespace.SelectHyperslab(start, nil, count, nil)

	dataspace, err := hdf5.CreateSimpleDataspace(count, nil)
	if err != nil {
		return err
	}
	defer dataspace.Close()

	return dataset.WriteSubset(data, dataspace, filespace)
}
